package testrepo

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/mvnboot/pkg/maven"
)

// Manifest describes a POM to render. Coordinate decides where it is
// served; OmitGroup and OmitVersion leave those elements out so the parent
// supplies them.
type Manifest struct {
	Coordinate   maven.Coordinate
	Parent       *maven.Coordinate
	OmitGroup    bool
	OmitVersion  bool
	Dependencies []Dep
}

// Dep is a dependency declaration.
type Dep struct {
	maven.Coordinate
	Scope      string
	Optional   bool
	Exclusions []maven.Key
}

// D is shorthand for a compile-scope declaration of "g:a:v".
func D(coord string, excludes ...string) Dep {
	c, err := maven.ParseCoordinate(coord)
	if err != nil {
		panic(err)
	}
	d := Dep{Coordinate: c}
	for _, e := range excludes {
		ec, err := maven.ParseCoordinate(e)
		if err != nil {
			panic(err)
		}
		d.Exclusions = append(d.Exclusions, ec.Key())
	}
	return d
}

// C parses "g:a:v" and panics on error.
func C(coord string) maven.Coordinate {
	c, err := maven.ParseCoordinate(coord)
	if err != nil {
		panic(err)
	}
	return c
}

// XML renders the manifest.
func (m Manifest) XML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<project xmlns="http://maven.apache.org/POM/4.0.0">` + "\n")
	b.WriteString("  <modelVersion>4.0.0</modelVersion>\n")
	if p := m.Parent; p != nil {
		fmt.Fprintf(&b, "  <parent>\n    %s\n    %s\n    %s\n  </parent>\n",
			elem("groupId", p.Group), elem("artifactId", p.Artifact), elem("version", p.Version))
	}
	if !m.OmitGroup {
		fmt.Fprintf(&b, "  %s\n", elem("groupId", m.Coordinate.Group))
	}
	fmt.Fprintf(&b, "  %s\n", elem("artifactId", m.Coordinate.Artifact))
	if !m.OmitVersion {
		fmt.Fprintf(&b, "  %s\n", elem("version", m.Coordinate.Version))
	}
	if len(m.Dependencies) > 0 {
		b.WriteString("  <dependencies>\n")
		for _, d := range m.Dependencies {
			b.WriteString("    <dependency>\n")
			fmt.Fprintf(&b, "      %s\n      %s\n", elem("groupId", d.Group), elem("artifactId", d.Artifact))
			if d.Version != "" {
				fmt.Fprintf(&b, "      %s\n", elem("version", d.Version))
			}
			if d.Scope != "" {
				fmt.Fprintf(&b, "      %s\n", elem("scope", d.Scope))
			}
			if d.Optional {
				b.WriteString("      <optional>true</optional>\n")
			}
			if len(d.Exclusions) > 0 {
				b.WriteString("      <exclusions>\n")
				for _, e := range d.Exclusions {
					fmt.Fprintf(&b, "        <exclusion>%s%s</exclusion>\n",
						elem("groupId", e.Group), elem("artifactId", e.Artifact))
				}
				b.WriteString("      </exclusions>\n")
			}
			b.WriteString("    </dependency>\n")
		}
		b.WriteString("  </dependencies>\n")
	}
	b.WriteString("</project>\n")
	return b.String()
}

func elem(name, value string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(value))
	return "<" + name + ">" + b.String() + "</" + name + ">"
}
