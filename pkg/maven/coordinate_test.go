package maven

import "testing"

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in      string
		want    Coordinate
		wantErr bool
	}{
		{"com.google.guava:guava", Coordinate{Group: "com.google.guava", Artifact: "guava"}, false},
		{"com.google.guava:guava:32.1.3-jre", Coordinate{Group: "com.google.guava", Artifact: "guava", Version: "32.1.3-jre"}, false},
		{"  org.slf4j:slf4j-api:2.0.9 ", Coordinate{Group: "org.slf4j", Artifact: "slf4j-api", Version: "2.0.9"}, false},
		{"guava", Coordinate{}, true},
		{"a:b:c:d", Coordinate{}, true},
		{":guava", Coordinate{}, true},
		{"g:a:", Coordinate{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCoordinate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCoordinate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCoordinate(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoordinateStrings(t *testing.T) {
	c := Coordinate{Group: "org.slf4j", Artifact: "slf4j-api", Version: "2.0.9"}
	if got := c.String(); got != "org.slf4j:slf4j-api:2.0.9" {
		t.Errorf("String() = %s", got)
	}
	if got := c.Key().String(); got != "org.slf4j:slf4j-api" {
		t.Errorf("Key().String() = %s", got)
	}
	if got := (Coordinate{Group: "g", Artifact: "a"}).String(); got != "g:a" {
		t.Errorf("versionless String() = %s", got)
	}
	if got := c.PackageURL(); got != "pkg:maven/org.slf4j/slf4j-api@2.0.9" {
		t.Errorf("PackageURL() = %s", got)
	}
}

func TestKeyText(t *testing.T) {
	k := Key{Group: "org.example.foo", Artifact: "bar"}
	text, _ := k.MarshalText()
	if string(text) != "org.example.foo:bar" {
		t.Errorf("MarshalText = %q", text)
	}
	var back Key
	if err := back.UnmarshalText(text); err != nil || back != k {
		t.Errorf("UnmarshalText = %+v, %v", back, err)
	}

	if text, _ := (Key{}).MarshalText(); len(text) != 0 {
		t.Errorf("zero key = %q", text)
	}
	if err := back.UnmarshalText(nil); err != nil || !back.IsZero() {
		t.Errorf("empty text = %+v, %v", back, err)
	}
	for _, bad := range []string{"nocolon", ":a", "g:"} {
		if err := back.UnmarshalText([]byte(bad)); err == nil {
			t.Errorf("UnmarshalText(%q) accepted", bad)
		}
	}
}
