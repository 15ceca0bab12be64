package cli

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnboot/pkg/buildinfo"
	"github.com/matzehuels/mvnboot/pkg/config"
	"github.com/matzehuels/mvnboot/pkg/selfupdate"
)

func (c *CLI) updateCommand() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace mvnboot with the latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(true)
			if err != nil {
				return err
			}
			_, err = c.selfUpdate(cmd.Context(), cfg, checkOnly)
			return err
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "only report whether an update is available")
	return cmd
}

// selfUpdate replaces the running binary when a newer release exists and
// reports whether it did.
func (c *CLI) selfUpdate(ctx context.Context, cfg *config.Config, checkOnly bool) (bool, error) {
	client := &http.Client{Timeout: cfg.HTTP.Timeout.Duration}
	rel, err := selfupdate.Check(ctx, client, c.updateIndexURL, buildinfo.Version)
	if err != nil {
		return false, err
	}
	c.Logger.Debug("release check", "latest", rel.Latest, "current", rel.Current)
	if !rel.Newer() {
		c.printInfo("mvnboot %s is up to date", buildinfo.Version)
		return false, nil
	}
	if checkOnly {
		c.printInfo("mvnboot %s is available (current %s)", rel.Latest, buildinfo.Version)
		return false, nil
	}

	exe, err := executable()
	if err != nil {
		return false, err
	}
	if err := selfupdate.Apply(ctx, &http.Client{}, c.updateBaseURL, rel.Latest, exe); err != nil {
		return false, err
	}
	c.printSuccess("Updated to %s, run mvnboot again to use it", rel.Latest)
	return true, nil
}

// cleanupStale removes the binary replaced by the last update. Failures are
// only logged.
func (c *CLI) cleanupStale() {
	exe, err := executable()
	if err != nil {
		return
	}
	removed, err := selfupdate.CleanupStale(filepath.Dir(exe))
	for _, p := range removed {
		c.Logger.Info("removed old binary", "path", p)
	}
	if err != nil {
		c.Logger.Warn("remove old binary", "err", err)
	}
}

func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}
