package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnboot/pkg/config"
	"github.com/matzehuels/mvnboot/pkg/jre"
	"github.com/matzehuels/mvnboot/pkg/launch"
)

func (c *CLI) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- app-args...]",
		Short: "Prepare the runtime and dependencies, then launch the application",
		Long: `Run performs the full bootstrap: it removes binaries left over from a self update,
checks for a newer mvnboot when self-update is enabled, installs a Java runtime if
none is found, downloads missing artifacts and starts the entrypoint. Bootstrap
commands are written to the application's stdin before your own input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.bootstrapAndRun(cmd.Context(), args)
		},
	}
}

func (c *CLI) bootstrapAndRun(ctx context.Context, args []string) error {
	cfg, err := c.loadConfig(false)
	if err != nil {
		return err
	}

	c.cleanupStale()
	if cfg.SelfUpdate {
		updated, err := c.selfUpdate(ctx, cfg, false)
		if err != nil {
			c.Logger.Warn("self update failed", "err", err)
		} else if updated {
			return nil
		}
	}

	b, err := c.newBootstrapper(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	java, err := c.ensureRuntime(ctx, cfg, false)
	if err != nil {
		return err
	}
	if _, err := c.syncArtifacts(ctx, b, false); err != nil {
		return err
	}

	c.Logger.Info("starting", "entrypoint", cfg.Entrypoint)
	code, err := launch.Run(ctx, launch.Spec{
		Java:              java,
		ContentDir:        cfg.ContentDir,
		Entrypoint:        cfg.Entrypoint,
		Args:              args,
		BootstrapCommands: cfg.BootstrapCommands,
		Stdin:             c.In,
		Stdout:            c.Out,
		Stderr:            c.ErrOut,
	})
	if err != nil {
		return err
	}
	c.Logger.Info("application exited", "status", code)
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// ensureRuntime returns a working java binary. The managed runtime is
// installed when the default path has no java; a configured path that does
// not exist is an error. reinstall replaces a managed runtime that works.
func (c *CLI) ensureRuntime(ctx context.Context, cfg *config.Config, reinstall bool) (string, error) {
	java := cfg.JRE.Path
	managed := java == config.DefaultJavaPath()

	version, err := jre.Check(ctx, java)
	switch {
	case err == nil && !(reinstall && managed):
		c.Logger.Debug("java runtime", "path", java, "version", version)
		return java, nil
	case err != nil && !errors.Is(err, jre.ErrNotInstalled):
		return "", err
	case !managed:
		return "", fmt.Errorf("%w at %s (jre.path)", jre.ErrNotInstalled, java)
	}

	dir := filepath.Dir(filepath.Dir(java))
	if reinstall {
		if err := os.RemoveAll(dir); err != nil {
			return "", err
		}
	}
	c.printInfo("Installing Java runtime into %s", dir)
	prog := beginStep(ctx)
	spin := newSpinner(ctx, c.ErrOut, "Installing Java runtime")
	spin.Start()
	err = jre.Install(ctx, jre.InstallOptions{
		Dir:         dir,
		Arch:        cfg.JRE.Arch,
		URLTemplate: cfg.JRE.URL,
		Logger:      debugf(c.Logger),
	})
	spin.Stop()
	if err != nil {
		return "", fmt.Errorf("install java runtime: %w", err)
	}
	prog.donef("Installed Java runtime")

	if version, err = jre.Check(ctx, java); err != nil {
		return "", err
	}
	c.printSuccess("Java runtime ready: %s", version)
	return java, nil
}
