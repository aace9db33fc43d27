package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/formatter"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the Perch CLI configuration",
		Long:  "The config command provides subcommands to view and update the CLI configuration file.",
	}

	cmd.AddCommand(
		newConfigShowCommand(),
		newConfigSetSiteCommand(),
		newConfigSetOutputCommand(),
	)

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.GetConfig()

			rendered, err := formatter.FormatOutput(cfg, outputFormat(output))
			if err != nil {
				return err
			}
			fmt.Println(rendered)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: json, yaml, or table")

	return cmd
}

func newConfigSetSiteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-site <site>",
		Short: "Set the default Perch site",
		Long: `Set the default Perch site, for example us1.perchdata.com.

The PERCH_SITE environment variable and the --site flag still override the
configured value for a single invocation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			site := args[0]
			if site == "" {
				return fmt.Errorf("site cannot be empty")
			}

			err := config.UpdateConfig(func(c *config.Config) {
				c.Site = site
			})
			if err != nil {
				return fmt.Errorf("failed to update configuration: %w", err)
			}

			fmt.Printf("Default site set to %s\n", site)
			return nil
		},
	}
}

func newConfigSetOutputCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-output <format>",
		Short: "Set the default output format",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			format := formatter.OutputFormat(args[0])
			switch format {
			case formatter.FormatJSON, formatter.FormatYAML, formatter.FormatTable:
			default:
				return fmt.Errorf("unknown output format: %s (must be json, yaml, or table)", args[0])
			}

			err := config.UpdateConfig(func(c *config.Config) {
				c.OutputFormat = string(format)
			})
			if err != nil {
				return fmt.Errorf("failed to update configuration: %w", err)
			}

			fmt.Printf("Default output format set to %s\n", format)
			return nil
		},
	}
}
