// Package pkg holds the libraries behind the mvnboot command.
//
// # Overview
//
// mvnboot starts a Java application from Maven artifacts. The pieces, leaf
// first:
//
//  1. [maven] - coordinates, repository layout, POM schema, parsing and fetching
//  2. [resolve] - the concurrent transitive resolver and its registry
//  3. [download] - bounded pool that writes archives into the content directory
//  4. [jre] - runtime check and installation
//  5. [launch] - runs java with the downloaded class path
//
// Supporting packages: [cache] stores fetched POMs, [config] reads
// mvnboot.toml, [observability] exposes hooks and Prometheus metrics,
// [render] draws resolution graphs, [selfupdate] replaces the binary and
// [buildinfo] carries the version.
//
// # Data flow
//
//	mvnboot.toml
//	     ↓
//	[resolve] Engine ←→ [maven] Fetcher ←→ [cache]
//	     ↓
//	[maven] Repository.ArchiveURL
//	     ↓
//	[download] Pool → content/*.jar
//	     ↓
//	[launch] java -cp content/* <entrypoint>
//
// # Quick Start
//
//	repo := maven.NewRepository(maven.CentralURL)
//	fetcher := maven.NewFetcher()
//	defer fetcher.Close()
//
//	engine := resolve.NewEngine(repo, fetcher, resolve.Options{})
//	res, err := engine.Resolve(ctx, maven.Coordinate{
//	    Group: "org.slf4j", Artifact: "slf4j-simple", Version: "2.0.9",
//	})
//
// [maven]: github.com/matzehuels/mvnboot/pkg/maven
// [resolve]: github.com/matzehuels/mvnboot/pkg/resolve
// [download]: github.com/matzehuels/mvnboot/pkg/download
// [jre]: github.com/matzehuels/mvnboot/pkg/jre
// [launch]: github.com/matzehuels/mvnboot/pkg/launch
// [cache]: github.com/matzehuels/mvnboot/pkg/cache
// [config]: github.com/matzehuels/mvnboot/pkg/config
// [observability]: github.com/matzehuels/mvnboot/pkg/observability
// [render]: github.com/matzehuels/mvnboot/pkg/render
// [selfupdate]: github.com/matzehuels/mvnboot/pkg/selfupdate
// [buildinfo]: github.com/matzehuels/mvnboot/pkg/buildinfo
package pkg
