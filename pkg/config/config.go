// Package config loads mvnboot.toml.
//
// A missing file is not an error to recover from: callers write the
// default template with [WriteTemplate] and ask the user to review it.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mvnboot/pkg/maven"
)

// FileName is the default configuration file.
const FileName = "mvnboot.toml"

// Defaults.
const (
	DefaultContentDir      = "./content"
	DefaultRuntimeDir      = "./runtime"
	DefaultConcurrency     = 16
	DefaultWorkers         = 12
	DefaultRetries         = 2
	DefaultTimeout         = 60 * time.Second
	DefaultJavaPathUnix    = "./runtime/bin/java"
	DefaultJavaPathWindows = "./runtime/bin/java.exe"
)

// ErrNotFound is returned by Load when the file does not exist.
var ErrNotFound = errors.New("config file not found")

// Config mirrors mvnboot.toml.
type Config struct {
	SelfUpdate        bool      `toml:"self-update"`
	Entrypoint        string    `toml:"entrypoint"`
	BootstrapCommands []string  `toml:"bootstrap-commands"`
	Repository        string    `toml:"repository"`
	ContentDir        string    `toml:"content-dir"`
	JRE               JRE       `toml:"jre"`
	Artifacts         Artifacts `toml:"artifacts"`
	Resolver          Resolver  `toml:"resolver"`
	Download          Download  `toml:"download"`
	HTTP              HTTP      `toml:"http"`
	Cache             Cache     `toml:"cache"`
}

type JRE struct {
	Path string `toml:"path"` // java binary; empty uses the managed runtime
	Arch string `toml:"arch"` // x64, x32, arm, aarch64; empty detects
	URL  string `toml:"url"`  // archive URL template with {os}, {arch}, {ext}
}

// Artifacts maps "group:artifact" to a version.
type Artifacts struct {
	Maven map[string]string `toml:"maven"` // resolved transitively
	Full  map[string]string `toml:"full"`  // single -all.jar, no resolution
}

type Resolver struct {
	Concurrency int      `toml:"concurrency"`
	SkipScopes  []string `toml:"skip-scopes"`
	KeepGoing   bool     `toml:"keep-going"`
}

type Download struct {
	Workers int `toml:"workers"`
}

type HTTP struct {
	Timeout   Duration `toml:"timeout"`
	Retries   *int     `toml:"retries"`
	UserAgent string   `toml:"user-agent"`
}

type Cache struct {
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis-url"`
	Disabled bool   `toml:"disabled"`
}

// Duration decodes TOML strings like "60s" or "2m".
type Duration struct {
	time.Duration
	set bool
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration, d.set = v, true
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// IsSet reports whether the value came from the file.
func (d Duration) IsSet() bool { return d.set }

// Default returns the configuration the template describes.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and validates path. Unset fields get their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates TOML data.
func Parse(data []byte) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse config: unknown keys: %s", strings.Join(keys, ", "))
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Repository == "" {
		c.Repository = maven.CentralURL
	}
	if c.ContentDir == "" {
		c.ContentDir = DefaultContentDir
	}
	if c.JRE.Path == "" {
		c.JRE.Path = DefaultJavaPath()
	}
	if c.Resolver.Concurrency <= 0 {
		c.Resolver.Concurrency = DefaultConcurrency
	}
	if c.Resolver.SkipScopes == nil {
		c.Resolver.SkipScopes = []string{maven.ScopeTest}
	}
	if c.Download.Workers <= 0 {
		c.Download.Workers = DefaultWorkers
	}
	if !c.HTTP.Timeout.IsSet() {
		c.HTTP.Timeout = Duration{Duration: DefaultTimeout, set: true}
	}
	if c.HTTP.Retries == nil {
		n := DefaultRetries
		c.HTTP.Retries = &n
	}
	if c.Artifacts.Maven == nil {
		c.Artifacts.Maven = map[string]string{}
	}
	if c.Artifacts.Full == nil {
		c.Artifacts.Full = map[string]string{}
	}
}

// DefaultJavaPath is the java binary of the managed runtime.
func DefaultJavaPath() string {
	if runtime.GOOS == "windows" {
		return DefaultJavaPathWindows
	}
	return DefaultJavaPathUnix
}

// Validate checks values that decoding alone cannot.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Entrypoint) == "" {
		errs = append(errs, errors.New("entrypoint is required"))
	}
	if c.HTTP.Timeout.Duration < 0 {
		errs = append(errs, errors.New("http.timeout must not be negative"))
	}
	if c.HTTP.Retries != nil && *c.HTTP.Retries < 0 {
		errs = append(errs, errors.New("http.retries must not be negative"))
	}
	for _, section := range []struct {
		name string
		m    map[string]string
	}{{"artifacts.maven", c.Artifacts.Maven}, {"artifacts.full", c.Artifacts.Full}} {
		for key, version := range section.m {
			if _, _, err := ParseArtifactKey(key); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", section.name, err))
			}
			if strings.TrimSpace(version) == "" {
				errs = append(errs, fmt.Errorf("%s: %s has no version", section.name, key))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseArtifactKey splits "group:artifact" on the last colon.
func ParseArtifactKey(key string) (group, artifact string, err error) {
	i := strings.LastIndex(key, ":")
	if i <= 0 || i == len(key)-1 {
		return "", "", fmt.Errorf("invalid artifact %q (expected group:artifact)", key)
	}
	return key[:i], key[i+1:], nil
}

// MavenArtifacts returns the transitively resolved roots, sorted.
func (c *Config) MavenArtifacts() []maven.Coordinate { return coordinates(c.Artifacts.Maven) }

// FullArtifacts returns the self-contained artifacts, sorted.
func (c *Config) FullArtifacts() []maven.Coordinate { return coordinates(c.Artifacts.Full) }

func coordinates(m map[string]string) []maven.Coordinate {
	out := make([]maven.Coordinate, 0, len(m))
	for key, version := range m {
		g, a, err := ParseArtifactKey(key)
		if err != nil {
			continue
		}
		out = append(out, maven.Coordinate{Group: g, Artifact: a, Version: strings.TrimSpace(version)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Retries returns the configured retry count.
func (c *Config) Retries() int {
	if c.HTTP.Retries == nil {
		return DefaultRetries
	}
	return *c.HTTP.Retries
}
