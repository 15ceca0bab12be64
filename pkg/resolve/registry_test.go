package resolve

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/mvnboot/pkg/maven"
)

func coord(g, a, v string) maven.Coordinate {
	return maven.Coordinate{Group: g, Artifact: a, Version: v}
}

func TestRegistryClaimRace(t *testing.T) {
	reg := NewRegistry(nil)
	defer reg.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from := maven.Key{Group: "g", Artifact: fmt.Sprintf("p%d", i)}
			if reg.Claim(coord("g", "shared", "1"), from, EdgeDependency, 1) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("%d claims succeeded, want exactly 1", got)
	}
	snap := reg.Snapshot()
	if len(snap.Dependencies) != 1 {
		t.Errorf("got %d entries, want 1", len(snap.Dependencies))
	}
	if len(snap.Edges) != 64 {
		t.Errorf("got %d edges, want 64", len(snap.Edges))
	}
	if len(snap.Conflicts) != 0 {
		t.Errorf("same version should not conflict: %+v", snap.Conflicts)
	}
}

func TestRegistryConflicts(t *testing.T) {
	var seen []Conflict
	reg := NewRegistry(func(c Conflict) { seen = append(seen, c) })
	defer reg.Close()

	root := maven.Key{Group: "g", Artifact: "root"}
	if !reg.Claim(coord("g", "lib", "1.0"), root, EdgeDependency, 1) {
		t.Fatal("first claim should win")
	}
	if reg.Claim(coord("g", "lib", "2.0"), root, EdgeDependency, 2) {
		t.Fatal("second claim should lose")
	}
	if reg.Claim(coord("g", "lib", ""), root, EdgeDependency, 2) {
		t.Fatal("versionless claim should lose")
	}

	snap := reg.Snapshot()
	if len(snap.Conflicts) != 1 || len(seen) != 1 {
		t.Fatalf("conflicts = %+v, callback saw %d", snap.Conflicts, len(seen))
	}
	if c := snap.Conflicts[0]; c.Kept != "1.0" || c.Rejected != "2.0" {
		t.Errorf("conflict = %+v", c)
	}
	if snap.Dependencies[0].Version != "1.0" {
		t.Errorf("first seen version should be kept, got %s", snap.Dependencies[0].Version)
	}
}

func TestRegistrySettle(t *testing.T) {
	reg := NewRegistry(nil)
	defer reg.Close()

	key := maven.Key{Group: "g", Artifact: "a"}
	reg.Claim(coord("g", "a", "1"), maven.Key{}, EdgeDependency, 0)

	if !reg.Settle(key, coord("g", "a", "1")) {
		t.Error("Settle with matching key should succeed")
	}
	if reg.Settle(key, coord("other", "a", "1")) {
		t.Error("Settle with a different key should be refused")
	}
	if reg.Settle(maven.Key{Group: "g", Artifact: "unclaimed"}, coord("g", "unclaimed", "1")) {
		t.Error("Settle of an unclaimed key should be refused")
	}
}

func TestRegistryFailAndSnapshot(t *testing.T) {
	reg := NewRegistry(nil)
	defer reg.Close()

	for _, a := range []string{"zeta", "alpha", "mid"} {
		reg.Claim(coord("g", a, "1"), maven.Key{}, EdgeDependency, 0)
	}
	if reg.Claim(coord("g", "alpha", "1"), maven.Key{Group: "g", Artifact: "zeta"}, EdgeParent, 1) {
		t.Error("alpha claimed twice")
	}
	reg.Fail(coord("g", "mid", "1"), errors.New("boom"))

	if reg.Claim(coord("g", "mid", "1"), maven.Key{}, EdgeDependency, 0) {
		t.Error("failed key must not be claimable again")
	}

	snap := reg.Snapshot()
	if len(snap.Dependencies) != 2 {
		t.Fatalf("dependencies = %+v", snap.Dependencies)
	}
	if snap.Dependencies[0].Artifact != "alpha" || snap.Dependencies[1].Artifact != "zeta" {
		t.Errorf("snapshot not sorted: %+v", snap.Dependencies)
	}
	if len(snap.Unresolved) != 1 || snap.Unresolved[0].Reason != "boom" {
		t.Errorf("unresolved = %+v", snap.Unresolved)
	}
	if len(snap.Edges) != 1 || snap.Edges[0].Kind != EdgeParent {
		t.Errorf("edges = %+v", snap.Edges)
	}
}
