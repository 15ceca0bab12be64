package maven

import (
	"fmt"
	"strings"

	"github.com/package-url/packageurl-go"
)

// Key is the identity of an artifact: two coordinates with the same key are
// the same artifact, whatever their versions.
type Key struct {
	Group    string
	Artifact string
}

// String returns "group:artifact".
func (k Key) String() string { return k.Group + ":" + k.Artifact }

// Coordinate identifies one artifact. Version may be empty when the
// coordinate comes from a declaration that omits it.
type Coordinate struct {
	Group    string `json:"group" yaml:"group"`
	Artifact string `json:"artifact" yaml:"artifact"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Key returns the identity of c.
func (c Coordinate) Key() Key { return Key{Group: c.Group, Artifact: c.Artifact} }

// String returns "group:artifact:version", or "group:artifact" without a version.
func (c Coordinate) String() string {
	if c.Version == "" {
		return c.Key().String()
	}
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// PackageURL returns the purl of c, e.g. "pkg:maven/org.slf4j/slf4j-api@2.0.9".
func (c Coordinate) PackageURL() string {
	return packageurl.NewPackageURL(packageurl.TypeMaven, c.Group, c.Artifact, c.Version, nil, "").ToString()
}

// ParseCoordinate parses "group:artifact" or "group:artifact:version".
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Coordinate{}, fmt.Errorf("invalid maven coordinate %q (expected groupId:artifactId[:version])", s)
	}
	for _, p := range parts {
		if p == "" {
			return Coordinate{}, fmt.Errorf("invalid maven coordinate %q (empty component)", s)
		}
	}
	c := Coordinate{Group: parts[0], Artifact: parts[1]}
	if len(parts) == 3 {
		c.Version = parts[2]
	}
	return c, nil
}

// IsZero reports whether k is the empty key.
func (k Key) IsZero() bool { return k == Key{} }

// MarshalText encodes k as "group:artifact", or "" for the zero key.
func (k Key) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return nil, nil
	}
	return []byte(k.String()), nil
}

// UnmarshalText parses "group:artifact", splitting on the last colon.
func (k *Key) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*k = Key{}
		return nil
	}
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return fmt.Errorf("invalid maven key %q (expected groupId:artifactId)", s)
	}
	*k = Key{Group: s[:i], Artifact: s[i+1:]}
	return nil
}
