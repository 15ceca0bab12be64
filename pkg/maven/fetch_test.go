package maven

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/mvnboot/pkg/cache"
)

func newTestFetcher(t *testing.T, opts ...FetchOption) *Fetcher {
	t.Helper()
	opts = append([]FetchOption{WithBaseDelay(time.Millisecond)}, opts...)
	f := NewFetcher(opts...)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFetchSuccess(t *testing.T) {
	var ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte("<project/>"))
	}))
	defer server.Close()

	f := newTestFetcher(t, WithUserAgent("mvnboot/test"))
	data, err := f.Fetch(context.Background(), server.URL+"/a.pom")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "<project/>" {
		t.Errorf("body = %q", data)
	}
	if ua != "mvnboot/test" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestFetchStatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"not found is not retried", http.StatusNotFound, 1},
		{"forbidden is not retried", http.StatusForbidden, 1},
		{"server error is retried", http.StatusInternalServerError, 3},
		{"rate limit is retried", http.StatusTooManyRequests, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := newTestFetcher(t, WithMaxRetries(2))
			_, err := f.Fetch(context.Background(), server.URL+"/a.pom")

			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *FetchError", err)
			}
			if fe.URL != server.URL+"/a.pom" {
				t.Errorf("FetchError.URL = %s", fe.URL)
			}
			var se *StatusError
			if !errors.As(err, &se) || se.Code != tt.status {
				t.Errorf("cause = %v, want status %d", fe.Err, tt.status)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("server saw %d requests, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestFetchRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newTestFetcher(t)
	data, err := f.Fetch(context.Background(), server.URL+"/a.pom")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "ok" || calls.Load() != 2 {
		t.Errorf("data=%q calls=%d", data, calls.Load())
	}
}

func TestFetchTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/a.pom"
	server.Close()

	f := newTestFetcher(t, WithMaxRetries(0))
	_, err := f.Fetch(context.Background(), url)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if IsNotFound(err) {
		t.Error("transport failure reported as not found")
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := newTestFetcher(t, WithTimeout(50*time.Millisecond), WithMaxRetries(0))
	start := time.Now()
	if _, err := f.Fetch(context.Background(), server.URL+"/slow.pom"); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout not applied")
	}
}

func TestFetchCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("<project/>"))
	}))
	defer server.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := newTestFetcher(t, WithCache(c, time.Hour))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(ctx, server.URL+"/g/a/1/a-1.pom"); err != nil {
			t.Fatal(err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("release manifest fetched %d times, want 1", got)
	}

	for i := 0; i < 2; i++ {
		if _, err := f.Fetch(ctx, server.URL+"/g/a/1-SNAPSHOT/a-1-SNAPSHOT.pom"); err != nil {
			t.Fatal(err)
		}
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("snapshot manifests should bypass the cache, total calls %d want 3", got)
	}
}

func TestFetchCollapsesConcurrentRequests(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-gate
		w.Write([]byte("<project/>"))
	}))
	defer server.Close()

	f := newTestFetcher(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.Fetch(context.Background(), server.URL+"/a.pom"); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests for one URL, want 1", got)
	}
}

func TestFetchCircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newTestFetcher(t, WithMaxRetries(0))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.Fetch(ctx, server.URL+"/a.pom")
	}
	before := calls.Load()

	_, err := f.Fetch(ctx, server.URL+"/a.pom")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if calls.Load() != before {
		t.Error("open breaker should not reach the server")
	}

	states := f.BreakerStates()
	if len(states) != 1 {
		t.Fatalf("BreakerStates() = %v", states)
	}
	for _, s := range states {
		if s != "open" {
			t.Errorf("breaker state = %s, want open", s)
		}
	}
}

func TestFetchNotFoundDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	f := newTestFetcher(t)
	for i := 0; i < 10; i++ {
		_, err := f.Fetch(context.Background(), server.URL+"/missing.pom")
		if !IsNotFound(err) {
			t.Fatalf("attempt %d: error = %v, want not found", i, err)
		}
	}
}

func TestFetchSizeLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		size := 1024
		if r.URL.Path == "/big.pom" {
			size = 1025
		}
		w.Write(make([]byte, size))
	}))
	defer server.Close()

	f := newTestFetcher(t)
	f.maxSize = 1024

	if data, err := f.Fetch(context.Background(), server.URL+"/exact.pom"); err != nil || len(data) != 1024 {
		t.Fatalf("body at the limit = %d bytes, %v", len(data), err)
	}

	_, err := f.Fetch(context.Background(), server.URL+"/big.pom")
	var fe *FetchError
	if !errors.As(err, &fe) || !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want FetchError wrapping ErrTooLarge", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("requests = %d, oversized body should not be retried", got)
	}
}

func TestWithTimeoutKeepsSuppliedClient(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	f := NewFetcher(WithHTTPClient(client), WithTimeout(time.Second))
	defer f.Close()
	if f.client != client {
		t.Fatal("supplied client not used")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("supplied client timeout changed to %s", client.Timeout)
	}

	own := NewFetcher(WithTimeout(time.Second))
	defer own.Close()
	if own.client.Timeout != time.Second {
		t.Errorf("default client timeout = %s", own.client.Timeout)
	}
}
