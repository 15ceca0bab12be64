package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/mvnboot/pkg/maven"
	"github.com/matzehuels/mvnboot/pkg/observability"
)

// Fetcher retrieves raw manifest bytes. [*maven.Fetcher] implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Error reports the coordinate whose resolution failed. Err is a
// [*maven.FetchError], [*maven.ParseError] or [*maven.CoordinateError].
type Error struct {
	Coordinate maven.Coordinate
	Err        error
}

func (e *Error) Error() string { return fmt.Sprintf("resolve %s: %v", e.Coordinate, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Result is the flattened outcome of one run.
type Result struct {
	RunID        uuid.UUID        `json:"run_id" yaml:"run_id"`
	Root         maven.Coordinate `json:"root" yaml:"root"`
	Dependencies []Dependency     `json:"dependencies" yaml:"dependencies"`
	Edges        []Edge           `json:"edges" yaml:"edges"`
	Conflicts    []Conflict       `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Unresolved   []Unresolved     `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Duration     time.Duration    `json:"duration" yaml:"duration"`
}

// Coordinates returns the resolved coordinates in result order.
func (r *Result) Coordinates() []maven.Coordinate {
	out := make([]maven.Coordinate, len(r.Dependencies))
	for i, d := range r.Dependencies {
		out[i] = d.Coordinate
	}
	return out
}

// Engine resolves the transitive dependency set of a root artifact.
//
// For every coordinate it fetches and parses the manifest, settles the
// manifest's effective coordinate into the run's [Registry], resolves the
// parent manifest, then follows each declared dependency that survives the
// filters:
//
//   - not excluded by the edges that led here
//   - scope not in Options.SkipScopes
//   - not optional
//   - key not yet claimed (atomic, first seen wins)
//
// Each accepted dependency is resolved in its own goroutine and the task
// waits for all of them. Fetches are bounded by Options.Concurrency; waiting
// on children does not hold a slot. By default the first failure cancels
// the run and no result is returned.
//
// An Engine is safe for concurrent use; every Resolve call has its own
// registry.
type Engine struct {
	repo    *maven.Repository
	fetcher Fetcher
	opts    Options
}

// NewEngine returns an Engine reading manifests from repo through fetcher.
func NewEngine(repo *maven.Repository, fetcher Fetcher, opts Options) *Engine {
	return &Engine{repo: repo, fetcher: fetcher, opts: opts.WithDefaults()}
}

// Resolve runs a full resolution from root, which must carry a version.
func (e *Engine) Resolve(ctx context.Context, root maven.Coordinate) (*Result, error) {
	start := time.Now()
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, root.String())

	r := &run{
		Engine: e,
		sem:    semaphore.NewWeighted(int64(e.opts.Concurrency)),
		skip:   make(map[string]bool, len(e.opts.SkipScopes)),
	}
	for _, s := range e.opts.SkipScopes {
		r.skip[s] = true
	}
	r.reg = NewRegistry(func(c Conflict) {
		e.opts.Logger("version conflict for %s: keeping %s, ignoring %s requested by %s", c.Key, c.Kept, c.Rejected, c.From)
		hooks.OnConflict(ctx, c.Key.String(), c.Kept, c.Rejected)
	})
	defer r.reg.Close()

	r.reg.Claim(root, maven.Key{}, EdgeDependency, 0)
	err := r.resolve(ctx, root, nil, 0)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		hooks.OnResolveComplete(ctx, root.String(), 0, time.Since(start), err)
		return nil, err
	}

	snap := r.reg.Snapshot()
	res := &Result{
		RunID:        uuid.New(),
		Root:         root,
		Dependencies: snap.Dependencies,
		Edges:        snap.Edges,
		Conflicts:    snap.Conflicts,
		Unresolved:   snap.Unresolved,
		Duration:     time.Since(start),
	}
	hooks.OnResolveComplete(ctx, root.String(), len(res.Dependencies), res.Duration, nil)
	return res, nil
}

type run struct {
	*Engine
	reg  *Registry
	sem  *semaphore.Weighted
	skip map[string]bool
}

// resolve handles one claimed coordinate. excluded holds the keys that
// must not be followed below this node.
func (r *run) resolve(ctx context.Context, c maven.Coordinate, excluded map[maven.Key]struct{}, depth int) error {
	project, err := r.load(ctx, c)
	if err != nil {
		return r.fail(ctx, c, depth, err)
	}

	eff, err := project.Effective()
	if err != nil {
		return r.fail(ctx, c, depth, err)
	}
	if !r.reg.Settle(c.Key(), eff) {
		r.opts.Logger("manifest for %s describes %s; keeping the requested coordinate", c, eff)
	}

	self := c.Key()
	if project.Parent != nil {
		parent := project.Parent.Coordinate()
		// A parent claimed elsewhere is resolved by its claimant. Waiting
		// for it here could deadlock when two chains meet.
		if r.reg.Claim(parent, self, EdgeParent, depth+1) {
			if err := r.resolve(ctx, parent, nil, depth+1); err != nil {
				return err
			}
		}
	}

	if len(project.Dependencies) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range project.Dependencies {
		if !r.accept(d, excluded) {
			continue
		}
		child := d.Coordinate()
		if !r.reg.Claim(child, self, EdgeDependency, depth+1) {
			continue
		}
		childExcluded := mergeExclusions(excluded, d.ExclusionSet())
		g.Go(func() error {
			return r.resolve(gctx, child, childExcluded, depth+1)
		})
	}
	return g.Wait()
}

// accept applies the filters that do not depend on registry state.
func (r *run) accept(d maven.Dependency, excluded map[maven.Key]struct{}) bool {
	if _, ok := excluded[d.Key()]; ok {
		return false
	}
	if r.skip[d.EffectiveScope()] {
		return false
	}
	return !d.IsOptional()
}

func (r *run) load(ctx context.Context, c maven.Coordinate) (*maven.Project, error) {
	url, err := r.repo.ManifestURL(c)
	if err != nil {
		return nil, err
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := r.fetcher.Fetch(ctx, url)
	r.sem.Release(1)

	var project *maven.Project
	if err == nil {
		project, err = maven.Parse(url, data)
	}
	observability.Resolve().OnManifest(ctx, c.String(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.opts.Logger("resolved manifest %s", c)
	return project, nil
}

// fail wraps err for c. Under KeepGoing the failure is recorded and the
// branch ends quietly, unless the run was cancelled or c is the root.
func (r *run) fail(ctx context.Context, c maven.Coordinate, depth int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	rerr := &Error{Coordinate: c, Err: err}
	if !r.opts.KeepGoing || depth == 0 {
		return rerr
	}
	r.opts.Logger("skipping %s: %v", c, err)
	r.reg.Fail(c, rerr)
	return nil
}

func mergeExclusions(inherited, own map[maven.Key]struct{}) map[maven.Key]struct{} {
	if len(inherited) == 0 {
		return own
	}
	out := make(map[maven.Key]struct{}, len(inherited)+len(own))
	for k := range inherited {
		out[k] = struct{}{}
	}
	for k := range own {
		out[k] = struct{}{}
	}
	return out
}
