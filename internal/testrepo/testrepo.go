// Package testrepo serves an in-memory Maven repository over HTTP for tests.
//
// Manifests are registered by coordinate; requests for them can be held
// until released so tests can force the order in which concurrent branches
// observe the repository.
package testrepo

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mvnboot/pkg/maven"
)

const pathRoot = "http://testrepo.invalid"

var layout = maven.NewRepository(pathRoot)

// Repo is a running test repository.
type Repo struct {
	server *httptest.Server

	mu        sync.Mutex
	files     map[string][]byte
	status    map[string]int
	holds     map[string]chan struct{}
	requested map[string]chan struct{}
	hits      map[string]int
}

// New starts a repository that is shut down when the test ends.
func New(t testing.TB) *Repo {
	t.Helper()
	r := &Repo{
		files:     make(map[string][]byte),
		status:    make(map[string]int),
		holds:     make(map[string]chan struct{}),
		requested: make(map[string]chan struct{}),
		hits:      make(map[string]int),
	}

	router := chi.NewRouter()
	router.Get("/*", r.serve)
	router.Head("/*", r.serve)
	r.server = httptest.NewServer(router)
	t.Cleanup(func() {
		r.mu.Lock()
		for p, ch := range r.holds {
			close(ch)
			delete(r.holds, p)
		}
		r.mu.Unlock()
		r.server.Close()
	})
	return r
}

// URL is the repository root.
func (r *Repo) URL() string { return r.server.URL }

// Client returns an HTTP client for the server.
func (r *Repo) Client() *http.Client { return r.server.Client() }

func (r *Repo) serve(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path

	r.mu.Lock()
	r.hits[path]++
	if ch, ok := r.requested[path]; ok {
		select {
		case <-ch:
		default:
			close(ch)
		}
	} else {
		ch := make(chan struct{})
		close(ch)
		r.requested[path] = ch
	}
	hold := r.holds[path]
	r.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-req.Context().Done():
			return
		}
	}

	r.mu.Lock()
	data, ok := r.files[path]
	code := r.status[path]
	r.mu.Unlock()

	switch {
	case code != 0:
		w.WriteHeader(code)
	case !ok:
		http.NotFound(w, req)
	default:
		w.Header().Set("Content-Type", contentType(path))
		w.Write(data)
	}
}

func contentType(path string) string {
	if strings.HasSuffix(path, ".pom") {
		return "text/xml"
	}
	return "application/java-archive"
}

// Put stores raw bytes at path (e.g. "/g/a/1/a-1.jar").
func (r *Repo) Put(path string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path] = data
}

// PutManifest stores m's rendered POM at its manifest path.
func (r *Repo) PutManifest(m Manifest) {
	r.Put(ManifestPath(m.Coordinate), []byte(m.XML()))
}

// PutArchive stores data as the jar of c.
func (r *Repo) PutArchive(c maven.Coordinate, data []byte) {
	r.Put(ArchivePath(c, ""), data)
}

// Status makes every request for path answer code.
func (r *Repo) Status(path string, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[path] = code
}

// Hold blocks requests for path until the returned function is called.
// Calling release more than once is harmless.
func (r *Repo) Hold(path string) (release func()) {
	ch := make(chan struct{})
	r.mu.Lock()
	r.holds[path] = ch
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.holds[path] == ch {
			delete(r.holds, path)
			close(ch)
		}
	}
}

// Requested returns a channel closed once path has been requested.
func (r *Repo) Requested(path string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.requested[path]
	if !ok {
		ch = make(chan struct{})
		r.requested[path] = ch
	}
	return ch
}

// Hits returns how many requests path received.
func (r *Repo) Hits(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[path]
}

// ManifestPath is the URL path of c's POM.
func ManifestPath(c maven.Coordinate) string {
	u, err := layout.ManifestURL(c)
	if err != nil {
		panic(fmt.Sprintf("testrepo: %v", err))
	}
	return strings.TrimPrefix(u, pathRoot)
}

// ArchivePath is the URL path of c's jar with an optional classifier.
func ArchivePath(c maven.Coordinate, classifier string) string {
	u, err := layout.ClassifiedArchiveURL(c, classifier)
	if err != nil {
		panic(fmt.Sprintf("testrepo: %v", err))
	}
	return strings.TrimPrefix(u, pathRoot)
}
