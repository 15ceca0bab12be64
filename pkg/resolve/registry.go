package resolve

import (
	"sort"

	"github.com/matzehuels/mvnboot/pkg/maven"
)

// EdgeKind distinguishes dependency declarations from parent references.
type EdgeKind string

const (
	EdgeDependency EdgeKind = "dependency"
	EdgeParent     EdgeKind = "parent"
)

// Dependency is one entry of a resolution result.
type Dependency struct {
	maven.Coordinate `yaml:",inline"`

	Depth int       `json:"depth" yaml:"depth"`                 // distance from the root along the claiming path
	Via   maven.Key `json:"via,omitempty" yaml:"via,omitempty"` // claimant; zero for the root
}

// Edge records that From's manifest references To.
type Edge struct {
	From maven.Key `json:"from" yaml:"from"`
	To   maven.Key `json:"to" yaml:"to"`
	Kind EdgeKind  `json:"kind" yaml:"kind"`
}

// Conflict records a claim rejected because its key was already registered
// with another version.
type Conflict struct {
	Key      maven.Key `json:"key" yaml:"key"`
	Kept     string    `json:"kept" yaml:"kept"`
	Rejected string    `json:"rejected" yaml:"rejected"`
	From     maven.Key `json:"from" yaml:"from"`
}

// Unresolved is a branch that failed under Options.KeepGoing.
type Unresolved struct {
	Coordinate maven.Coordinate `json:"coordinate" yaml:"coordinate"`
	Err        error            `json:"-" yaml:"-"`
	Reason     string           `json:"reason" yaml:"reason"`
}

// Snapshot is a copy of the registry contents. Dependencies are sorted by key.
type Snapshot struct {
	Dependencies []Dependency
	Edges        []Edge
	Conflicts    []Conflict
	Unresolved   []Unresolved
}

// Registry is the deduplicating store of one resolution run.
//
// All state is owned by a single coordinator goroutine; every method sends
// it a message and waits for the reply. That makes check-and-insert one
// atomic step: of any number of concurrent Claims of a key, exactly one
// succeeds. The policy is first-seen-wins. A later claim carrying a
// different version is rejected and recorded as a [Conflict].
//
// A Registry must not be used after Close.
type Registry struct {
	ops        chan func(*registryState)
	done       chan struct{}
	onConflict func(Conflict)
}

type registryState struct {
	entries    map[maven.Key]*Dependency
	failed     map[maven.Key]bool
	edges      map[Edge]struct{}
	edgeOrder  []Edge
	conflicts  []Conflict
	unresolved []Unresolved
}

// NewRegistry starts the coordinator. onConflict, if non-nil, runs on the
// coordinator for each recorded conflict and must not call back into the
// Registry.
func NewRegistry(onConflict func(Conflict)) *Registry {
	r := &Registry{
		ops:        make(chan func(*registryState)),
		done:       make(chan struct{}),
		onConflict: onConflict,
	}
	go r.loop()
	return r
}

func (r *Registry) loop() {
	defer close(r.done)
	s := &registryState{
		entries: make(map[maven.Key]*Dependency),
		failed:  make(map[maven.Key]bool),
		edges:   make(map[Edge]struct{}),
	}
	for op := range r.ops {
		op(s)
	}
}

func (r *Registry) call(op func(*registryState)) {
	reply := make(chan struct{})
	r.ops <- func(s *registryState) {
		op(s)
		close(reply)
	}
	<-reply
}

// Claim registers c if its key is absent and reports whether it did. The
// edge from → c is recorded either way unless from is the zero key.
func (r *Registry) Claim(c maven.Coordinate, from maven.Key, kind EdgeKind, depth int) bool {
	var claimed bool
	r.call(func(s *registryState) {
		key := c.Key()
		if from != (maven.Key{}) {
			s.addEdge(Edge{From: from, To: key, Kind: kind})
		}
		existing, ok := s.entries[key]
		if !ok {
			s.entries[key] = &Dependency{Coordinate: c, Depth: depth, Via: from}
			claimed = true
			return
		}
		if c.Version != "" && existing.Version != "" && c.Version != existing.Version {
			conflict := Conflict{Key: key, Kept: existing.Version, Rejected: c.Version, From: from}
			s.conflicts = append(s.conflicts, conflict)
			if r.onConflict != nil {
				r.onConflict(conflict)
			}
		}
	})
	return claimed
}

// Settle overwrites the entry for key with the effective coordinate read
// from its manifest. It reports false, leaving the entry untouched, when the
// manifest describes a different key.
func (r *Registry) Settle(key maven.Key, effective maven.Coordinate) bool {
	var ok bool
	r.call(func(s *registryState) {
		e, found := s.entries[key]
		if !found || effective.Key() != key {
			return
		}
		e.Coordinate = effective
		ok = true
	})
	return ok
}

// Fail records that c could not be resolved. Its key stays claimed, so no
// other branch retries it, but it is reported in Snapshot.Unresolved
// instead of Snapshot.Dependencies.
func (r *Registry) Fail(c maven.Coordinate, err error) {
	r.call(func(s *registryState) {
		s.failed[c.Key()] = true
		s.unresolved = append(s.unresolved, Unresolved{Coordinate: c, Err: err, Reason: err.Error()})
	})
}

// Snapshot copies the current contents.
func (r *Registry) Snapshot() Snapshot {
	var snap Snapshot
	r.call(func(s *registryState) {
		snap.Dependencies = make([]Dependency, 0, len(s.entries))
		for key, e := range s.entries {
			if s.failed[key] {
				continue
			}
			snap.Dependencies = append(snap.Dependencies, *e)
		}
		snap.Edges = append([]Edge(nil), s.edgeOrder...)
		snap.Conflicts = append([]Conflict(nil), s.conflicts...)
		snap.Unresolved = append([]Unresolved(nil), s.unresolved...)
	})
	sort.Slice(snap.Dependencies, func(i, j int) bool {
		return snap.Dependencies[i].Key().String() < snap.Dependencies[j].Key().String()
	})
	sort.Slice(snap.Edges, func(i, j int) bool {
		a, b := snap.Edges[i], snap.Edges[j]
		if a.From != b.From {
			return a.From.String() < b.From.String()
		}
		return a.To.String() < b.To.String()
	})
	return snap
}

// Close stops the coordinator.
func (r *Registry) Close() {
	close(r.ops)
	<-r.done
}

func (s *registryState) addEdge(e Edge) {
	if _, ok := s.edges[e]; ok {
		return
	}
	s.edges[e] = struct{}{}
	s.edgeOrder = append(s.edgeOrder, e)
}
