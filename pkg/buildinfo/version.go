// Package buildinfo carries the version stamped into the binary at link time:
//
//	go build -ldflags "-X github.com/matzehuels/mvnboot/pkg/buildinfo.Version=0.3.0 \
//	    -X github.com/matzehuels/mvnboot/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	// Version is the release version without a leading "v", or "dev".
	Version = "dev"

	// Commit is the short git SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the multi-line version report.
func String() string {
	return fmt.Sprintf("mvnboot %s\ncommit: %s\nbuilt: %s\nplatform: %s/%s",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}

// Template returns the cobra version template.
func Template() string {
	return "{{.Name}} " + strings.ReplaceAll(String(), "mvnboot ", "") + "\n"
}

// UserAgent is sent on every repository and update request.
func UserAgent() string {
	return "mvnboot/" + Version
}
