package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) downloadCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the configured artifacts into the content directory",
		Long: `Download resolves every [artifacts.maven] entry whose jar is missing from the
content directory and fetches its dependency set with a bounded worker pool.
Artifacts the repository does not serve are skipped with a warning. [artifacts.full]
entries are fetched as single -all jars.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(false)
			if err != nil {
				return err
			}
			b, err := c.newBootstrapper(cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			report, err := c.syncArtifacts(cmd.Context(), b, all)
			if err != nil {
				return err
			}
			sum := report.Summary
			for _, f := range sum.Failures {
				c.printWarning("skipped %s: %v", f.URL, f.Err)
			}
			c.printSuccess("Content directory ready")
			c.printStats(
				fmt.Sprintf("%d downloaded", sum.Downloaded+report.Full),
				fmt.Sprintf("%d present", sum.Existing),
				fmt.Sprintf("%d skipped", sum.Skipped),
				humanBytes(sum.Bytes),
			)
			c.printFile(cfg.ContentDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "resolve every artifact even when its jar is present")
	return cmd
}
