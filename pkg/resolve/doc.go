// Package resolve computes the transitive dependency set of a Maven artifact.
//
// An [Engine] walks the POM graph concurrently: one goroutine per accepted
// dependency edge, manifest fetches bounded by [Options].Concurrency. All
// shared state lives in a [Registry] owned by a single coordinator
// goroutine; workers reach it only through messages, so claiming a
// coordinate is one atomic step and the first claimant of a (group,
// artifact) key wins. Later claims with a different version are kept as
// [Conflict] records and reported as warnings.
//
// Filtering follows Maven's rules without version mediation: a declaration
// is dropped when its scope is skipped (test by default), when it is
// optional, when an exclusion on the path leading to it names it, or when
// its key is already claimed. Exclusions accumulate down the subtree of the
// edge that declared them. Property placeholders and dependencyManagement
// are not interpreted.
//
//	engine := resolve.NewEngine(repo, fetcher, resolve.Options{Concurrency: 8})
//	res, err := engine.Resolve(ctx, root)
//	for _, c := range res.Coordinates() {
//	    url, _ := repo.ArchiveURL(c)
//	    ...
//	}
package resolve
