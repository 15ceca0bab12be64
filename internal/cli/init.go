package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnboot/pkg/config"
)

func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(c.configPath); err != nil {
				return err
			}
			c.printSuccess("Wrote default configuration")
			c.printFile(c.configPath)
			return nil
		},
	}
}
