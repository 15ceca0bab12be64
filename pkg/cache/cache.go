// Package cache stores raw manifest bytes between runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON entry per key under a directory (the default)
//   - [RedisCache]: a shared cache for machines that resolve the same trees
//   - [NullCache]: caching disabled
//
// Keys are opaque strings; callers use [ManifestKey] so that the same URL
// maps to the same entry whichever backend is configured.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is a byte store with per-entry expiry. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the stored bytes and true, or false on a miss. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry this cache owns.
	Clear(ctx context.Context) error

	Close() error
}

// ErrUnavailable wraps backend failures that callers may treat as misses.
var ErrUnavailable = errors.New("cache unavailable")

// ManifestKey returns the cache key for a manifest URL.
func ManifestKey(url string) string {
	return "pom:" + Hash([]byte(url))
}

// Options selects and configures a backend for [Open].
type Options struct {
	Dir      string // FileCache directory
	RedisURL string // redis://... selects RedisCache when set
	Disabled bool   // NullCache
}

// Open returns the backend described by opts.
func Open(opts Options) (Cache, error) {
	switch {
	case opts.Disabled:
		return NewNullCache(), nil
	case opts.RedisURL != "":
		return NewRedisCache(opts.RedisURL)
	case opts.Dir != "":
		return NewFileCache(opts.Dir)
	}
	return nil, errors.New("cache: no directory or redis url configured")
}
