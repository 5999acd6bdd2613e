package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mftypes/pkg/config"
)

// configCommand groups config file helpers.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the mftypes configuration",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())

	return cmd
}

// configInitCommand writes a starter config file.
func (c *CLI) configInitCommand() *cobra.Command {
	var (
		force      bool
		name       string
		federation string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.FileName,
		Long: `Init writes a config file with every default spelled out. With --federation,
app_name, exposes and remotes are copied from a JSON federation config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			cfg.AppName = name
			if federation != "" {
				fc, err := config.ReadFederation(federation)
				if err != nil {
					return err
				}
				cfg.ApplyFederation(fc)
			}
			path := c.configFile
			if path == "" {
				path = config.FileName
			}
			if err := cfg.WriteFile(path, force); err != nil {
				return err
			}
			printSuccess("Wrote %s", StyleHighlight.Render(path))
			printNextStep("Generate and install declarations", appName+" build")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().StringVar(&name, "name", "", "application name")
	cmd.Flags().StringVar(&federation, "federation", "", "import names from a JSON federation config")
	return cmd
}

// configShowCommand prints the resolved configuration.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration (file, environment and defaults)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
