// Package selfupdate checks for newer mvnboot releases and swaps the running
// binary for the downloaded one.
//
// The running executable is renamed to "<name>.mvnbootold" since Windows
// refuses to overwrite a running binary; the next start removes it with
// CleanupStale.
package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	// DefaultIndexURL lists published versions as {"tags":[],"versions":[]}.
	DefaultIndexURL = "https://data.jsdelivr.com/v1/package/gh/matzehuels/mvnboot"

	// DefaultBaseURL hosts the per-platform binaries under v{version}/.
	DefaultBaseURL = "https://cdn.jsdelivr.net/gh/matzehuels/mvnboot-update"

	// StaleSuffix marks the binary replaced by the last update.
	StaleSuffix = ".mvnbootold"
)

// ErrNoVersions is returned when the index lists no valid versions.
var ErrNoVersions = errors.New("selfupdate: no published versions")

type index struct {
	Tags     []string `json:"tags"`
	Versions []string `json:"versions"`
}

// Release is the result of a version check.
type Release struct {
	Current string
	Latest  string
}

// Newer reports whether Latest is above Current.
func (r Release) Newer() bool {
	cur := canonical(r.Current)
	if !semver.IsValid(cur) {
		return true
	}
	return semver.Compare(canonical(r.Latest), cur) > 0
}

func canonical(v string) string {
	return "v" + strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// Check fetches the index and returns the highest published version.
func Check(ctx context.Context, client *http.Client, indexURL, current string) (Release, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	body, err := get(ctx, client, indexURL)
	if err != nil {
		return Release{}, err
	}
	defer body.Close()

	var idx index
	if err := json.NewDecoder(body).Decode(&idx); err != nil {
		return Release{}, fmt.Errorf("selfupdate: decode index: %w", err)
	}

	latest := ""
	for _, v := range idx.Versions {
		c := canonical(v)
		if !semver.IsValid(c) {
			continue
		}
		if latest == "" || semver.Compare(c, latest) > 0 {
			latest = c
		}
	}
	if latest == "" {
		return Release{}, ErrNoVersions
	}
	return Release{Current: current, Latest: strings.TrimPrefix(latest, "v")}, nil
}

// AssetURL returns the binary location for version on the given platform.
func AssetURL(baseURL, version, goos, goarch string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	name := fmt.Sprintf("mvnboot_%s_%s", goos, goarch)
	if goos == "windows" {
		name += ".exe"
	}
	return fmt.Sprintf("%s/v%s/%s", strings.TrimSuffix(baseURL, "/"), strings.TrimPrefix(version, "v"), name)
}

// Apply downloads version for this platform and replaces exe with it.
// Nothing is renamed until the download has completed.
func Apply(ctx context.Context, client *http.Client, baseURL, version, exe string) error {
	if client == nil {
		client = http.DefaultClient
	}
	url := AssetURL(baseURL, version, runtime.GOOS, runtime.GOARCH)
	body, err := get(ctx, client, url)
	if err != nil {
		return err
	}
	defer body.Close()

	dir := filepath.Dir(exe)
	tmp, err := os.CreateTemp(dir, ".mvnboot-update-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("selfupdate: download %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o755); err != nil {
		return err
	}

	old := stalePath(exe)
	if err := os.Rename(exe, old); err != nil {
		return fmt.Errorf("selfupdate: move old binary: %w", err)
	}
	if err := os.Rename(tmpName, exe); err != nil {
		_ = os.Rename(old, exe)
		return fmt.Errorf("selfupdate: install new binary: %w", err)
	}
	return nil
}

func stalePath(exe string) string {
	return strings.TrimSuffix(exe, filepath.Ext(exe)) + StaleSuffix
}

// CleanupStale removes binaries left behind by a previous Apply and returns
// the removed paths.
func CleanupStale(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+StaleSuffix))
	if err != nil {
		return nil, err
	}
	var removed []string
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, m)
	}
	return removed, errors.Join(errs...)
}

func get(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("selfupdate: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("selfupdate: GET %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
