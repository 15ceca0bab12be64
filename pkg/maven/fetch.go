package maven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
	circuit "github.com/rubyist/circuitbreaker"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/mvnboot/pkg/cache"
	"github.com/matzehuels/mvnboot/pkg/observability"
)

// Fetcher defaults.
const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 2
	DefaultUserAgent  = "mvnboot"
	DefaultCacheTTL   = 7 * 24 * time.Hour
)

// maxManifestSize caps manifest bodies; real POMs are a few hundred KB at most.
const maxManifestSize = 16 << 20

// Fetcher retrieves manifest bytes over HTTP.
//
// Transport errors, 429 and 5xx responses are retried with exponential
// backoff. Other statuses fail immediately. Each host has its own circuit
// breaker that opens after repeated transient failures, so a dead mirror
// fails a run quickly instead of timing out every branch of the tree.
// Concurrent fetches of the same URL share one request.
//
// Release manifests are immutable and are cached when a [cache.Cache] is
// configured; "-SNAPSHOT" versions always go to the network.
//
// A Fetcher is safe for concurrent use. Close stops its DNS refresher.
type Fetcher struct {
	client     *http.Client
	timeout    time.Duration
	maxSize    int64
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     func(string, ...any)

	flight   singleflight.Group
	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
	stop     chan struct{}
	stopOnce sync.Once
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// WithHTTPClient replaces the default DNS-caching client. The client is
// used as is: its own timeout applies and WithTimeout is ignored.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the per-request timeout of the default client. Zero
// disables it.
func WithTimeout(d time.Duration) FetchOption {
	return func(f *Fetcher) { f.timeout = d }
}

func WithUserAgent(ua string) FetchOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) FetchOption {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithBaseDelay sets the first backoff interval.
func WithBaseDelay(d time.Duration) FetchOption {
	return func(f *Fetcher) { f.baseDelay = d }
}

// WithCache stores release manifests in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) FetchOption {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithLogger receives debug messages about retries and cache use.
func WithLogger(fn func(string, ...any)) FetchOption {
	return func(f *Fetcher) { f.logger = fn }
}

// NewFetcher returns a Fetcher with the default timeout, retry count and a
// transport that caches DNS lookups.
func NewFetcher(opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		timeout:    DefaultTimeout,
		maxSize:    maxManifestSize,
		userAgent:  DefaultUserAgent,
		maxRetries: DefaultMaxRetries,
		baseDelay:  500 * time.Millisecond,
		cache:      cache.NewNullCache(),
		breakers:   make(map[string]*circuit.Breaker),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{
			Timeout:   f.timeout,
			Transport: newTransport(f.stop),
		}
	}
	return f
}

func newTransport(stop <-chan struct{}) *http.Transport {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				resolver.Refresh(true)
			case <-stop:
				return
			}
		}
	}()

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			if lastErr == nil {
				lastErr = fmt.Errorf("no addresses for %s", host)
			}
			return nil, lastErr
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// Close stops background work. The Fetcher must not be used afterwards.
func (f *Fetcher) Close() error {
	f.stopOnce.Do(func() { close(f.stop) })
	return nil
}

// Fetch returns the body of url. Failures are [*FetchError]; for HTTP
// statuses the cause is a [*StatusError].
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	cacheable := !strings.Contains(rawURL, "-SNAPSHOT")
	key := cache.ManifestKey(rawURL)

	if cacheable {
		data, ok, err := f.cache.Get(ctx, key)
		switch {
		case err != nil:
			f.log("cache read failed for %s: %v", rawURL, err)
		case ok:
			observability.Cache().OnCacheHit(ctx, "pom")
			return data, nil
		default:
			observability.Cache().OnCacheMiss(ctx, "pom")
		}
	}

	v, err, _ := f.flight.Do(rawURL, func() (any, error) {
		return f.fetchGuarded(ctx, rawURL)
	})
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	data := v.([]byte)

	if cacheable {
		if err := f.cache.Set(ctx, key, data, f.cacheTTL); err != nil {
			f.log("cache write failed for %s: %v", rawURL, err)
		} else {
			observability.Cache().OnCacheSet(ctx, "pom", len(data))
		}
	}
	return data, nil
}

// fetchGuarded runs the retry loop inside the host's circuit breaker. Only
// transient failures count against the breaker; a 404 is an answer, not an
// outage.
func (f *Fetcher) fetchGuarded(ctx context.Context, rawURL string) ([]byte, error) {
	host := hostOf(rawURL)
	breaker := f.breaker(host)
	if !breaker.Ready() {
		return nil, fmt.Errorf("%s: %w", host, ErrCircuitOpen)
	}

	var (
		data     []byte
		fetchErr error
	)
	err := breaker.Call(func() error {
		data, fetchErr = f.fetchWithRetry(ctx, rawURL)
		if fetchErr != nil && transient(fetchErr) && ctx.Err() == nil {
			return fetchErr
		}
		return nil
	}, 0)
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return nil, fmt.Errorf("%s: %w", host, ErrCircuitOpen)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return data, err
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.baseDelay
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0

	var data []byte
	attempt := 0
	op := func() error {
		attempt++
		var err error
		data, err = f.get(ctx, rawURL)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !transient(err) {
			return backoff.Permanent(err)
		}
		if attempt <= f.maxRetries {
			f.log("retrying %s after attempt %d: %v", rawURL, attempt, err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(f.maxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%w (last error: %v)", ctxErr, err)
		}
		return nil, err
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		return nil, err
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxSize)
	}
	return data, nil
}

func (f *Fetcher) breaker(host string) *circuit.Breaker {
	f.mu.RLock()
	b, ok := f.breakers[host]
	f.mu.RUnlock()
	if ok {
		return b
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.breakers[host]; ok {
		return b
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 30 * time.Second
	policy.MaxInterval = 5 * time.Minute
	policy.Multiplier = 2.0
	policy.Reset()
	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    policy,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	f.breakers[host] = b
	return b
}

// BreakerStates reports "open" or "closed" per host seen so far.
func (f *Fetcher) BreakerStates() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	states := make(map[string]string, len(f.breakers))
	for host, b := range f.breakers {
		if b.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func (f *Fetcher) log(format string, args ...any) {
	if f.logger != nil {
		f.logger(format, args...)
	}
}

// transient reports whether err is worth retrying: transport failures,
// 429 and 5xx.
func transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrTooLarge)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
