// Package download fetches archives into a directory with a bounded pool.
//
// The pool is deliberately forgiving: an item that answers a non-success
// status or fails in transit is skipped and counted, never returned as an
// error. Only local I/O failures and cancellation abort a batch.
// [File] is the strict single-file variant.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mvnboot/pkg/observability"
)

// DefaultWorkers bounds concurrent transfers.
const DefaultWorkers = 12

// EventKind classifies progress events.
type EventKind int

const (
	EventStarted EventKind = iota
	EventFinished
	EventSkipped
	EventExisting
)

// Event reports progress on one item.
type Event struct {
	Kind  EventKind
	URL   string
	Bytes int64
	Err   error
	Done  int // items finished so far, any outcome
	Total int
}

// Failure is an item that was skipped.
type Failure struct {
	URL string
	Err error
}

// Summary describes a finished batch.
type Summary struct {
	Downloaded int
	Existing   int
	Skipped    int
	Bytes      int64
	Failures   []Failure
}

// Options configures a Pool.
type Options struct {
	Workers      int                  // Concurrent transfers (default: 12)
	Client       *http.Client         // HTTP client (default: http.DefaultClient)
	UserAgent    string               // User-Agent header (optional)
	SkipExisting bool                 // Do not re-download files already in the directory
	Progress     func(Event)          // Called from worker goroutines (optional)
	Logger       func(string, ...any) // Debug callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Progress == nil {
		opts.Progress = func(Event) {}
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Pool downloads URLs into one directory.
type Pool struct {
	dir  string
	opts Options
}

// NewPool returns a pool writing into dir.
func NewPool(dir string, opts Options) *Pool {
	return &Pool{dir: dir, opts: opts.WithDefaults()}
}

// Fetch downloads every URL. Files are named after the last path segment.
func (p *Pool) Fetch(ctx context.Context, urls []string) (Summary, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return Summary{}, err
	}

	var (
		mu   sync.Mutex
		sum  Summary
		done int
	)
	finish := func(ev Event) {
		mu.Lock()
		done++
		ev.Done, ev.Total = done, len(urls)
		switch ev.Kind {
		case EventFinished:
			sum.Downloaded++
			sum.Bytes += ev.Bytes
		case EventExisting:
			sum.Existing++
		case EventSkipped:
			sum.Skipped++
			sum.Failures = append(sum.Failures, Failure{URL: ev.URL, Err: ev.Err})
		}
		mu.Unlock()
		p.opts.Progress(ev)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for _, u := range urls {
		g.Go(func() error {
			return p.fetchOne(gctx, u, finish)
		})
	}
	err := g.Wait()
	return sum, err
}

func (p *Pool) fetchOne(ctx context.Context, rawURL string, finish func(Event)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := FileName(rawURL)
	if err != nil {
		finish(Event{Kind: EventSkipped, URL: rawURL, Err: err})
		return nil
	}
	dest := filepath.Join(p.dir, name)
	if p.opts.SkipExisting {
		if _, err := os.Stat(dest); err == nil {
			finish(Event{Kind: EventExisting, URL: rawURL})
			return nil
		}
	}

	p.opts.Progress(Event{Kind: EventStarted, URL: rawURL})
	start := time.Now()
	n, err := get(ctx, p.opts.Client, p.opts.UserAgent, rawURL, dest)
	observability.Download().OnDownload(ctx, rawURL, n, time.Since(start), err)

	var local *localError
	switch {
	case err == nil:
		finish(Event{Kind: EventFinished, URL: rawURL, Bytes: n})
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.As(err, &local):
		return err
	default:
		p.opts.Logger("skipping %s: %v", rawURL, err)
		finish(Event{Kind: EventSkipped, URL: rawURL, Err: err})
		return nil
	}
}

// File downloads rawURL into dir and returns the written path. Unlike
// Pool.Fetch every failure, including a non-success status, is an error.
func File(ctx context.Context, client *http.Client, rawURL, dir string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)
	if _, err := get(ctx, client, "", rawURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// FileName returns the last path segment of rawURL.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("no file name in %s", rawURL)
	}
	return name, nil
}

// StatusError is returned for non-success responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// localError marks failures writing to disk.
type localError struct{ err error }

func (e *localError) Error() string { return e.err.Error() }
func (e *localError) Unwrap() error { return e.err }

// get streams rawURL into dest through a temporary file in the same
// directory, renaming it into place only when the body was read completely.
func get(ctx context.Context, client *http.Client, userAgent, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, &localError{err}
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		var pe *os.PathError
		if errors.As(err, &pe) {
			return n, &localError{err}
		}
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, &localError{err}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return n, &localError{err}
	}
	return n, nil
}
