package maven

import (
	"encoding/xml"
	"strings"
)

// Dependency scopes. A declaration without a scope is compile scoped.
const (
	ScopeCompile  = "compile"
	ScopeRuntime  = "runtime"
	ScopeTest     = "test"
	ScopeProvided = "provided"
	ScopeSystem   = "system"
	ScopeImport   = "import"
)

// DefaultPluginGroup is the groupId of build plugins that omit one.
const DefaultPluginGroup = "org.apache.maven.plugins"

// Project is a parsed POM manifest.
//
// Only Parent, GroupID, ArtifactID, Version and Dependencies drive
// resolution. The remaining fields are decoded so that a manifest can be
// inspected in full, but nothing in the resolver looks at them.
// Property tokens like "${project.version}" are kept verbatim.
type Project struct {
	XMLName      xml.Name `xml:"project"`
	ModelVersion string   `xml:"modelVersion"`

	Parent     *Parent `xml:"parent"`
	GroupID    string  `xml:"groupId"`
	ArtifactID string  `xml:"artifactId"`
	Version    string  `xml:"version"`
	Packaging  string  `xml:"packaging"`

	Name          string        `xml:"name"`
	Description   string        `xml:"description"`
	URL           string        `xml:"url"`
	InceptionYear string        `xml:"inceptionYear"`
	Organization  *Organization `xml:"organization"`
	Licenses      []License     `xml:"licenses>license"`
	Developers    []Person      `xml:"developers>developer"`
	Contributors  []Person      `xml:"contributors>contributor"`
	Modules       []string      `xml:"modules>module"`
	SCM           *SCM          `xml:"scm"`

	DependencyManagement *DependencyManagement `xml:"dependencyManagement"`
	Dependencies         []Dependency          `xml:"dependencies>dependency"`

	Repositories       []RemoteRepository `xml:"repositories>repository"`
	PluginRepositories []RemoteRepository `xml:"pluginRepositories>pluginRepository"`
	Build              *Build             `xml:"build"`
	Profiles           []Profile          `xml:"profiles>profile"`
}

// Parent references the manifest a project inherits from.
type Parent struct {
	GroupID      string `xml:"groupId"`
	ArtifactID   string `xml:"artifactId"`
	Version      string `xml:"version"`
	RelativePath string `xml:"relativePath"`
}

// Coordinate returns the coordinate of the parent manifest.
func (p *Parent) Coordinate() Coordinate {
	return Coordinate{Group: p.GroupID, Artifact: p.ArtifactID, Version: p.Version}
}

// Dependency is one <dependency> declaration.
type Dependency struct {
	GroupID    string      `xml:"groupId"`
	ArtifactID string      `xml:"artifactId"`
	Version    string      `xml:"version"`
	Type       string      `xml:"type"`
	Classifier string      `xml:"classifier"`
	Scope      string      `xml:"scope"`
	SystemPath string      `xml:"systemPath"`
	Optional   string      `xml:"optional"`
	Exclusions []Exclusion `xml:"exclusions>exclusion"`
}

// Coordinate returns the declared coordinate. Version may be empty.
func (d Dependency) Coordinate() Coordinate {
	return Coordinate{Group: d.GroupID, Artifact: d.ArtifactID, Version: d.Version}
}

// Key returns the identity of the declared artifact.
func (d Dependency) Key() Key { return Key{Group: d.GroupID, Artifact: d.ArtifactID} }

// EffectiveScope returns Scope, or [ScopeCompile] when none is declared.
func (d Dependency) EffectiveScope() string {
	if d.Scope == "" {
		return ScopeCompile
	}
	return d.Scope
}

// IsOptional reports whether the declaration is marked <optional>true</optional>.
// Any other value, including property tokens, counts as false.
func (d Dependency) IsOptional() bool { return d.Optional == "true" }

// ExclusionSet returns the keys excluded below this declaration.
// The result is never nil.
func (d Dependency) ExclusionSet() map[Key]struct{} {
	set := make(map[Key]struct{}, len(d.Exclusions))
	for _, e := range d.Exclusions {
		set[e.Key()] = struct{}{}
	}
	return set
}

// Exclusion names an artifact that must not be pulled in through the
// declaring dependency.
type Exclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// Key returns the identity of the excluded artifact.
func (e Exclusion) Key() Key { return Key{Group: e.GroupID, Artifact: e.ArtifactID} }

type DependencyManagement struct {
	Dependencies []Dependency `xml:"dependencies>dependency"`
}

type License struct {
	Name         string `xml:"name"`
	URL          string `xml:"url"`
	Distribution string `xml:"distribution"`
	Comments     string `xml:"comments"`
}

type Organization struct {
	Name string `xml:"name"`
	URL  string `xml:"url"`
}

// Person is a developer or contributor entry.
type Person struct {
	ID              string   `xml:"id"`
	Name            string   `xml:"name"`
	Email           string   `xml:"email"`
	URL             string   `xml:"url"`
	Organization    string   `xml:"organization"`
	OrganizationURL string   `xml:"organizationUrl"`
	Roles           []string `xml:"roles>role"`
	Timezone        string   `xml:"timezone"`
}

type SCM struct {
	Connection          string `xml:"connection"`
	DeveloperConnection string `xml:"developerConnection"`
	Tag                 string `xml:"tag"`
	URL                 string `xml:"url"`
}

// RemoteRepository is a <repository> or <pluginRepository> entry. It is
// informational only; resolution always uses the configured [Repository].
type RemoteRepository struct {
	ID        string      `xml:"id"`
	Name      string      `xml:"name"`
	URL       string      `xml:"url"`
	Layout    string      `xml:"layout"`
	Releases  *RepoPolicy `xml:"releases"`
	Snapshots *RepoPolicy `xml:"snapshots"`
}

type RepoPolicy struct {
	Enabled        string `xml:"enabled"`
	UpdatePolicy   string `xml:"updatePolicy"`
	ChecksumPolicy string `xml:"checksumPolicy"`
}

type Build struct {
	DefaultGoal      string      `xml:"defaultGoal"`
	Directory        string      `xml:"directory"`
	FinalName        string      `xml:"finalName"`
	SourceDirectory  string      `xml:"sourceDirectory"`
	Filters          []string    `xml:"filters>filter"`
	Resources        []Resource  `xml:"resources>resource"`
	TestResources    []Resource  `xml:"testResources>testResource"`
	Extensions       []Extension `xml:"extensions>extension"`
	Plugins          []Plugin    `xml:"plugins>plugin"`
	PluginManagement *struct {
		Plugins []Plugin `xml:"plugins>plugin"`
	} `xml:"pluginManagement"`
}

type Resource struct {
	Directory  string   `xml:"directory"`
	TargetPath string   `xml:"targetPath"`
	Filtering  string   `xml:"filtering"`
	Includes   []string `xml:"includes>include"`
	Excludes   []string `xml:"excludes>exclude"`
}

type Extension struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// Plugin is a build plugin declaration. GroupID is [DefaultPluginGroup]
// after parsing when the manifest omits it.
type Plugin struct {
	GroupID      string       `xml:"groupId"`
	ArtifactID   string       `xml:"artifactId"`
	Version      string       `xml:"version"`
	Extensions   string       `xml:"extensions"`
	Inherited    string       `xml:"inherited"`
	Executions   []Execution  `xml:"executions>execution"`
	Dependencies []Dependency `xml:"dependencies>dependency"`
}

type Execution struct {
	ID    string   `xml:"id"`
	Phase string   `xml:"phase"`
	Goals []string `xml:"goals>goal"`
}

// Profile is kept as data; profiles are never activated.
type Profile struct {
	ID                   string                `xml:"id"`
	Activation           *Activation           `xml:"activation"`
	Modules              []string              `xml:"modules>module"`
	Dependencies         []Dependency          `xml:"dependencies>dependency"`
	DependencyManagement *DependencyManagement `xml:"dependencyManagement"`
	Repositories         []RemoteRepository    `xml:"repositories>repository"`
	Build                *Build                `xml:"build"`
}

type Activation struct {
	ActiveByDefault string `xml:"activeByDefault"`
	JDK             string `xml:"jdk"`
	OS              *struct {
		Name    string `xml:"name"`
		Family  string `xml:"family"`
		Arch    string `xml:"arch"`
		Version string `xml:"version"`
	} `xml:"os"`
	Property *struct {
		Name  string `xml:"name"`
		Value string `xml:"value"`
	} `xml:"property"`
	File *struct {
		Exists  string `xml:"exists"`
		Missing string `xml:"missing"`
	} `xml:"file"`
}

// Effective returns the coordinate this manifest describes. GroupID and
// Version fall back to the parent's when the project omits them.
func (p *Project) Effective() (Coordinate, error) {
	c := Coordinate{Group: p.GroupID, Artifact: p.ArtifactID, Version: p.Version}
	if p.Parent != nil {
		if c.Group == "" {
			c.Group = p.Parent.GroupID
		}
		if c.Version == "" {
			c.Version = p.Parent.Version
		}
	}
	if c.Group == "" {
		return c, &CoordinateError{Coordinate: c, Err: ErrMissingGroup}
	}
	if c.Version == "" {
		return c, &CoordinateError{Coordinate: c, Err: ErrMissingVersion}
	}
	return c, nil
}

// normalize trims whitespace that pretty-printed manifests leave around
// values and fills in plugin group defaults.
func (p *Project) normalize() {
	p.GroupID = strings.TrimSpace(p.GroupID)
	p.ArtifactID = strings.TrimSpace(p.ArtifactID)
	p.Version = strings.TrimSpace(p.Version)
	if p.Parent != nil {
		p.Parent.GroupID = strings.TrimSpace(p.Parent.GroupID)
		p.Parent.ArtifactID = strings.TrimSpace(p.Parent.ArtifactID)
		p.Parent.Version = strings.TrimSpace(p.Parent.Version)
	}
	normalizeDeps(p.Dependencies)
	if p.DependencyManagement != nil {
		normalizeDeps(p.DependencyManagement.Dependencies)
	}
	for i := range p.Profiles {
		normalizeDeps(p.Profiles[i].Dependencies)
		normalizeBuild(p.Profiles[i].Build)
	}
	normalizeBuild(p.Build)
}

func normalizeDeps(deps []Dependency) {
	for i := range deps {
		d := &deps[i]
		d.GroupID = strings.TrimSpace(d.GroupID)
		d.ArtifactID = strings.TrimSpace(d.ArtifactID)
		d.Version = strings.TrimSpace(d.Version)
		d.Scope = strings.TrimSpace(d.Scope)
		d.Optional = strings.TrimSpace(d.Optional)
		for j := range d.Exclusions {
			e := &d.Exclusions[j]
			e.GroupID = strings.TrimSpace(e.GroupID)
			e.ArtifactID = strings.TrimSpace(e.ArtifactID)
		}
	}
}

func normalizeBuild(b *Build) {
	if b == nil {
		return
	}
	fill := func(plugins []Plugin) {
		for i := range plugins {
			plugins[i].GroupID = strings.TrimSpace(plugins[i].GroupID)
			if plugins[i].GroupID == "" {
				plugins[i].GroupID = DefaultPluginGroup
			}
		}
	}
	fill(b.Plugins)
	if b.PluginManagement != nil {
		fill(b.PluginManagement.Plugins)
	}
}
