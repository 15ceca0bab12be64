package maven

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingGroup is returned when neither a manifest nor its parent
	// declares a groupId.
	ErrMissingGroup = errors.New("missing groupId")

	// ErrMissingVersion is returned when a coordinate has no version, either
	// because a manifest and its parent both omit it or because a URL is
	// requested for a versionless coordinate.
	ErrMissingVersion = errors.New("missing version")

	// ErrMissingArtifact is returned by [Parse] for manifests without an artifactId.
	ErrMissingArtifact = errors.New("missing artifactId")

	// ErrTooLarge is returned for manifest bodies over the size limit.
	ErrTooLarge = errors.New("manifest too large")

	// ErrCircuitOpen is returned while a repository host is considered down.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// FetchError reports a manifest that could not be retrieved.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a manifest that was retrieved but is malformed or does
// not have the expected structure.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.URL, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// CoordinateError reports a coordinate that cannot be derived or used.
// Err is [ErrMissingGroup] or [ErrMissingVersion].
type CoordinateError struct {
	Coordinate Coordinate
	Err        error
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Coordinate, e.Err)
}

func (e *CoordinateError) Unwrap() error { return e.Err }

// StatusError is the cause of a [FetchError] for non-success HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.Code, http.StatusText(e.Code))
}

// NotFound reports whether the repository answered 404.
func (e *StatusError) NotFound() bool { return e.Code == http.StatusNotFound }

// IsNotFound reports whether err is a fetch that failed with a 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.NotFound()
}
