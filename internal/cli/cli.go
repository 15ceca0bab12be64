// Package cli implements the mvnboot command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnboot/pkg/buildinfo"
	"github.com/matzehuels/mvnboot/pkg/cache"
	"github.com/matzehuels/mvnboot/pkg/config"
	"github.com/matzehuels/mvnboot/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "mvnboot"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// ErrConfigCreated is returned when a missing config file was replaced by
// the default template; the user should review it and run again.
var ErrConfigCreated = errors.New("wrote default config, review it and run mvnboot again")

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	In     io.Reader // forwarded to the launched application
	Out    io.Writer // status lines and command output
	ErrOut io.Writer // logs and progress UI

	configPath  string
	verbose     bool
	noCache     bool
	metricsPath string
	metrics     *observability.Prometheus

	updateIndexURL string // empty uses selfupdate.DefaultIndexURL
	updateBaseURL  string // empty uses selfupdate.DefaultBaseURL
}

// New creates a CLI printing to out and logging to errOut.
func New(out, errOut io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(errOut, level),
		In:     os.Stdin,
		Out:    out,
		ErrOut: errOut,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Running the root command without a subcommand bootstraps and launches the
// application, like "mvnboot run".
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Resolve, download and launch a Java application from Maven artifacts",
		Long: `mvnboot reads mvnboot.toml, makes sure a Java runtime is available, resolves the
transitive Maven dependencies of the configured artifacts, downloads them into
the content directory and starts the configured entrypoint.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if c.metricsPath != "" {
				c.enableMetrics()
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.flushMetrics()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.bootstrapAndRun(cmd.Context(), nil)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)
	root.SetErr(c.ErrOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", config.FileName, "configuration file")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.BoolVar(&c.noCache, "no-cache", false, "do not read or write the manifest cache")
	flags.StringVar(&c.metricsPath, "metrics-textfile", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.downloadCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.jreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file. A missing file is replaced by the
// template and reported as ErrConfigCreated unless optional is set, in which
// case the defaults are returned.
func (c *CLI) loadConfig(optional bool) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err == nil {
		c.Logger.Debug("loaded config", "path", c.configPath)
		return cfg, nil
	}
	if !errors.Is(err, config.ErrNotFound) {
		return nil, err
	}
	if optional {
		c.Logger.Debug("no config file, using defaults", "path", c.configPath)
		return config.Default(), nil
	}
	if err := config.WriteTemplate(c.configPath); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}
	c.printInfo("Created %s", c.configPath)
	return nil, ErrConfigCreated
}

// =============================================================================
// Cache
// =============================================================================

func (c *CLI) openCache(cfg *config.Config) (cache.Cache, error) {
	if c.noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisURL != "" {
		return cache.Open(cache.Options{RedisURL: cfg.Cache.RedisURL})
	}
	dir, err := cachePath(cfg)
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.Open(cache.Options{Dir: dir})
}

// cachePath returns the configured cache directory or the XDG default.
func cachePath(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/mvnboot/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Metrics
// =============================================================================

func (c *CLI) enableMetrics() {
	c.metrics = observability.NewPrometheus()
	observability.SetResolveHooks(c.metrics)
	observability.SetDownloadHooks(c.metrics)
	observability.SetCacheHooks(c.metrics)
	observability.SetHTTPHooks(c.metrics)
}

func (c *CLI) flushMetrics() error {
	if c.metrics == nil {
		return nil
	}
	if err := c.metrics.WriteTextfile(c.metricsPath); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	c.Logger.Debug("wrote metrics", "path", c.metricsPath)
	return nil
}
