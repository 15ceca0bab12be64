package resolve

import "github.com/matzehuels/mvnboot/pkg/maven"

// DefaultConcurrency bounds simultaneous manifest fetches.
const DefaultConcurrency = 16

// DefaultSkipScopes are the scopes dropped when Options.SkipScopes is nil.
var DefaultSkipScopes = []string{maven.ScopeTest}

// Options configures a resolution run.
type Options struct {
	Concurrency int                  // Max concurrent manifest fetches (default: 16)
	SkipScopes  []string             // Scopes never followed (default: test); empty non-nil skips none
	KeepGoing   bool                 // Record failing branches in Result.Unresolved instead of aborting
	Logger      func(string, ...any) // Debug/warning callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.SkipScopes == nil {
		opts.SkipScopes = DefaultSkipScopes
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}
