// Package maven provides the Maven repository primitives used by the resolver.
//
// # Overview
//
// This package knows how Maven repositories are laid out and how POM
// manifests look. It does not follow dependencies; see [resolve] for that.
//
//   - [Repository]: coordinate → manifest (.pom) and archive (.jar) URLs
//   - [Fetcher]: HTTP retrieval of manifest bytes with caching and retries
//   - [Parse]: POM bytes → [Project]
//   - [Project.Effective]: a manifest's coordinate with parent fallback
//
// # Coordinates
//
// Artifacts are identified by "groupId:artifactId[:version]". The identity
// used for deduplication is the [Key] (group and artifact); the version is
// a value carried along with it.
//
//	c, _ := maven.ParseCoordinate("com.google.guava:guava:32.1.3-jre")
//	repo := maven.NewRepository(maven.CentralURL)
//	url, _ := repo.ManifestURL(c)
//	// https://repo1.maven.org/maven2/com/google/guava/guava/32.1.3-jre/guava-32.1.3-jre.pom
//
// # Properties
//
// Values such as "${project.version}" are never interpolated. They are kept
// as literal strings and end up in URLs verbatim, which usually makes the
// fetch fail with a 404.
//
// [resolve]: github.com/matzehuels/mvnboot/pkg/resolve
package maven
