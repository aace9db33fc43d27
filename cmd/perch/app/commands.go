// Package app provides the entry point for the perch command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/perchlabs/perch/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "perch",
	DisableAutoGenTag: true,
	Short:             "Perch is a command-line client for the Perch observability platform",
	Long: `Perch is a command-line client for the Perch observability platform.

It authenticates against a Perch site interactively through the system
browser, stores the resulting credentials in the OS keychain (or a
permission-restricted file when no keychain is available), and uses them
to call the platform API on your behalf.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates a new root command for the Perch CLI.
func NewRootCmd() *cobra.Command {
	// Add persistent flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.PersistentFlags().String("site", "", "Perch site to talk to (overrides PERCH_SITE and the config file)")
	rootCmd.PersistentFlags().String("token-storage", "",
		"Credential storage backend: keychain, file, or none (overrides PERCH_TOKEN_STORAGE)")

	// Add subcommands
	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}
