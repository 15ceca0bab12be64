package maven

import (
	"errors"
	"strings"
	"testing"
)

func TestRepositoryURLs(t *testing.T) {
	c := Coordinate{Group: "org.apache.commons", Artifact: "commons-lang3", Version: "3.14.0"}

	tests := []struct {
		name string
		root string
		fn   func(*Repository) (string, error)
		want string
	}{
		{
			name: "manifest",
			root: CentralURL,
			fn:   func(r *Repository) (string, error) { return r.ManifestURL(c) },
			want: "https://repo1.maven.org/maven2/org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0.pom",
		},
		{
			name: "archive",
			root: "https://mirror.example/repo/",
			fn:   func(r *Repository) (string, error) { return r.ArchiveURL(c) },
			want: "https://mirror.example/repo/org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0.jar",
		},
		{
			name: "classified",
			root: CentralURL,
			fn:   func(r *Repository) (string, error) { return r.ClassifiedArchiveURL(c, "all") },
			want: "https://repo1.maven.org/maven2/org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0-all.jar",
		},
		{
			name: "empty classifier",
			root: CentralURL,
			fn:   func(r *Repository) (string, error) { return r.ClassifiedArchiveURL(c, "") },
			want: "https://repo1.maven.org/maven2/org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0.jar",
		},
		{
			name: "default root",
			root: "",
			fn:   func(r *Repository) (string, error) { return r.ManifestURL(c) },
			want: "https://repo1.maven.org/maven2/org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0.pom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(NewRepository(tt.root))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestRepositoryMissingVersion(t *testing.T) {
	r := NewRepository(CentralURL)
	c := Coordinate{Group: "g", Artifact: "a"}

	if _, err := r.ManifestURL(c); !errors.Is(err, ErrMissingVersion) {
		t.Errorf("ManifestURL error = %v, want ErrMissingVersion", err)
	}
	if _, err := r.ArchiveURL(c); !errors.Is(err, ErrMissingVersion) {
		t.Errorf("ArchiveURL error = %v, want ErrMissingVersion", err)
	}
}

func TestManifestURLRoundTrip(t *testing.T) {
	r := NewRepository("http://repo.test")
	coords := []Coordinate{
		{Group: "a.b.c", Artifact: "x", Version: "1"},
		{Group: "single", Artifact: "with-dash", Version: "2.0.0-RC1"},
		{Group: "io.netty", Artifact: "netty-all", Version: "4.1.100.Final"},
	}
	for _, c := range coords {
		u, err := r.ManifestURL(c)
		if err != nil {
			t.Fatal(err)
		}
		got, ok := coordinateFromURL(r.Root(), u)
		if !ok || got != c {
			t.Errorf("round trip of %s gave %s (ok=%v) via %s", c, got, ok, u)
		}
	}
}

// coordinateFromURL inverts ManifestURL for the standard layout.
func coordinateFromURL(root, u string) (Coordinate, bool) {
	rest, ok := strings.CutPrefix(u, root+"/")
	if !ok {
		return Coordinate{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 4 {
		return Coordinate{}, false
	}
	n := len(parts)
	c := Coordinate{
		Group:    strings.Join(parts[:n-3], "."),
		Artifact: parts[n-3],
		Version:  parts[n-2],
	}
	if parts[n-1] != c.Artifact+"-"+c.Version+".pom" {
		return Coordinate{}, false
	}
	return c, true
}
