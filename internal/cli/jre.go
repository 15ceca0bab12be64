package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnboot/pkg/jre"
)

func (c *CLI) jreCommand() *cobra.Command {
	var reinstall bool
	cmd := &cobra.Command{
		Use:   "jre",
		Short: "Check the Java runtime, installing the managed one if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(true)
			if err != nil {
				return err
			}
			java, err := c.ensureRuntime(cmd.Context(), cfg, reinstall)
			if err != nil {
				return err
			}
			version, err := jre.Check(cmd.Context(), java)
			if err != nil {
				return err
			}
			c.printKeyValue("java", java)
			c.printKeyValue("version", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reinstall, "reinstall", false, "replace the managed runtime")
	return cmd
}
