// Package observability provides hooks for metrics about resolution,
// downloads, cache use and HTTP traffic.
//
// Libraries emit events through the package-level getters; main decides
// which implementation receives them. The defaults are no-ops, so nothing
// is recorded unless a backend is registered:
//
//	func main() {
//	    m := observability.NewPrometheus()
//	    observability.SetResolveHooks(m)
//	    observability.SetHTTPHooks(m)
//	    // ... run
//	    m.WriteTextfile("mvnboot.prom")
//	}
//
// Emitting:
//
//	start := time.Now()
//	data, err := fetch(ctx, url)
//	observability.Resolve().OnManifest(ctx, coord, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// ResolveHooks receives events from the dependency resolver.
type ResolveHooks interface {
	OnResolveStart(ctx context.Context, root string)
	// OnManifest fires once per manifest the resolver fetched and parsed.
	OnManifest(ctx context.Context, coordinate string, duration time.Duration, err error)
	// OnConflict fires when a key is claimed again with a different version.
	OnConflict(ctx context.Context, key, kept, rejected string)
	OnResolveComplete(ctx context.Context, root string, resolved int, duration time.Duration, err error)
}

// DownloadHooks receives events from the archive download pool.
type DownloadHooks interface {
	OnDownload(ctx context.Context, url string, bytes int64, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError records a transport failure (no response at all).
	OnError(ctx context.Context, method, host, path string, err error)
}

type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolveStart(context.Context, string)                               {}
func (NoopResolveHooks) OnManifest(context.Context, string, time.Duration, error)             {}
func (NoopResolveHooks) OnConflict(context.Context, string, string, string)                   {}
func (NoopResolveHooks) OnResolveComplete(context.Context, string, int, time.Duration, error) {}

type NoopDownloadHooks struct{}

func (NoopDownloadHooks) OnDownload(context.Context, string, int64, time.Duration, error) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// slot holds one registered hook set.
type slot[T any] struct {
	mu  sync.RWMutex
	cur T
	def T
}

func newSlot[T any](def T) *slot[T] { return &slot[T]{cur: def, def: def} }

func (s *slot[T]) load() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *slot[T]) store(v T, ok bool) {
	if !ok {
		return
	}
	s.mu.Lock()
	s.cur = v
	s.mu.Unlock()
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.cur = s.def
	s.mu.Unlock()
}

var (
	resolveSlot  = newSlot[ResolveHooks](NoopResolveHooks{})
	downloadSlot = newSlot[DownloadHooks](NoopDownloadHooks{})
	cacheSlot    = newSlot[CacheHooks](NoopCacheHooks{})
	httpSlot     = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetResolveHooks registers resolver hooks. Nil is ignored, as for the
// other setters.
func SetResolveHooks(h ResolveHooks) { resolveSlot.store(h, h != nil) }

func SetDownloadHooks(h DownloadHooks) { downloadSlot.store(h, h != nil) }

func SetCacheHooks(h CacheHooks) { cacheSlot.store(h, h != nil) }

func SetHTTPHooks(h HTTPHooks) { httpSlot.store(h, h != nil) }

func Resolve() ResolveHooks   { return resolveSlot.load() }
func Download() DownloadHooks { return downloadSlot.load() }
func Cache() CacheHooks       { return cacheSlot.load() }
func HTTP() HTTPHooks         { return httpSlot.load() }

// Reset restores the no-op defaults.
func Reset() {
	resolveSlot.reset()
	downloadSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
