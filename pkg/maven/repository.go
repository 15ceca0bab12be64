package maven

import (
	"strings"
)

// CentralURL is the root of Maven Central.
const CentralURL = "https://repo1.maven.org/maven2"

// Repository builds URLs following the standard Maven repository layout:
//
//	{root}/{group with dots as slashes}/{artifact}/{version}/{artifact}-{version}.{ext}
//
// It performs no I/O and is safe for concurrent use.
type Repository struct {
	root string
}

// NewRepository returns a Repository rooted at root. An empty root means
// Maven Central. Trailing slashes are ignored.
func NewRepository(root string) *Repository {
	root = strings.TrimRight(strings.TrimSpace(root), "/")
	if root == "" {
		root = CentralURL
	}
	return &Repository{root: root}
}

// Root returns the repository root URL without a trailing slash.
func (r *Repository) Root() string { return r.root }

// ManifestURL returns the URL of the .pom for c.
func (r *Repository) ManifestURL(c Coordinate) (string, error) {
	base, err := r.base(c)
	if err != nil {
		return "", err
	}
	return base + ".pom", nil
}

// ArchiveURL returns the URL of the .jar for c.
func (r *Repository) ArchiveURL(c Coordinate) (string, error) {
	base, err := r.base(c)
	if err != nil {
		return "", err
	}
	return base + ".jar", nil
}

// ClassifiedArchiveURL returns the URL of a classified jar, e.g. the
// "all" classifier gives {artifact}-{version}-all.jar.
func (r *Repository) ClassifiedArchiveURL(c Coordinate, classifier string) (string, error) {
	if classifier == "" {
		return r.ArchiveURL(c)
	}
	base, err := r.base(c)
	if err != nil {
		return "", err
	}
	return base + "-" + classifier + ".jar", nil
}

func (r *Repository) base(c Coordinate) (string, error) {
	if c.Version == "" {
		return "", &CoordinateError{Coordinate: c, Err: ErrMissingVersion}
	}
	var b strings.Builder
	b.WriteString(r.root)
	b.WriteByte('/')
	b.WriteString(strings.ReplaceAll(c.Group, ".", "/"))
	b.WriteByte('/')
	b.WriteString(c.Artifact)
	b.WriteByte('/')
	b.WriteString(c.Version)
	b.WriteByte('/')
	b.WriteString(c.Artifact)
	b.WriteByte('-')
	b.WriteString(c.Version)
	return b.String(), nil
}
