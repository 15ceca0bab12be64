// Package jre locates, checks and installs the Java runtime.
//
// Managed runtimes are AdoptOpenJDK style archives: a single top-level
// "jdk-*-jre" directory inside a .tar.gz (Linux) or .zip (Windows). macOS
// has no managed runtime; users point jre.path at an existing java.
package jre

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// DefaultURLTemplate is the runtime archive location. {arch}, {os} and
// {ext} are substituted.
const DefaultURLTemplate = "https://mirrors.tuna.tsinghua.edu.cn/AdoptOpenJDK/11/jre/{arch}/{os}/OpenJDK11U-jre_{arch}_{os}_openj9_11.0.8_10_openj9-0.21.0{ext}"

var (
	// ErrNotInstalled is returned by Check when no java binary exists.
	ErrNotInstalled = errors.New("java runtime not installed")

	// ErrUnsupported is returned for platforms without a managed runtime.
	ErrUnsupported = errors.New("no managed java runtime for this platform")
)

// Check runs "java -version" and returns the first line it prints.
// A missing binary is [ErrNotInstalled]; a binary that fails to run is
// reported as broken.
func Check(ctx context.Context, javaPath string) (string, error) {
	path, ok := locate(javaPath)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotInstalled, javaPath)
	}

	var stderr, stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("java at %s is broken, consider reinstalling it: %w", path, err)
	}

	out := stderr.String()
	if strings.TrimSpace(out) == "" {
		out = stdout.String()
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(line), nil
}

// locate accepts path as given or with a .exe suffix.
func locate(path string) (string, bool) {
	for _, p := range []string{path, path + ".exe"} {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Arch maps GOARCH to the runtime archive naming. A non-empty override is
// returned unchanged.
func Arch(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	switch runtime.GOARCH {
	case "386":
		return "x32", nil
	case "amd64":
		return "x64", nil
	case "arm":
		return "arm", nil
	case "arm64":
		return "aarch64", nil
	}
	return "", fmt.Errorf("%w: arch %s", ErrUnsupported, runtime.GOARCH)
}

// Platform returns the archive os name and extension for goos.
func Platform(goos string) (osName, ext string, err error) {
	switch goos {
	case "linux":
		return "linux", ".tar.gz", nil
	case "windows":
		return "windows", ".zip", nil
	case "darwin":
		return "", "", fmt.Errorf("%w: set jre.path in the config to an installed java", ErrUnsupported)
	}
	return "", "", fmt.Errorf("%w: os %s", ErrUnsupported, goos)
}

// URL expands tmpl for the given platform. An empty tmpl uses
// [DefaultURLTemplate].
func URL(tmpl, arch, osName, ext string) string {
	if tmpl == "" {
		tmpl = DefaultURLTemplate
	}
	return strings.NewReplacer("{arch}", arch, "{os}", osName, "{ext}", ext).Replace(tmpl)
}
