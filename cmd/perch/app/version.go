package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perchlabs/perch/pkg/formatter"
	"github.com/perchlabs/perch/pkg/versions"
)

// newVersionCmd creates a new version command
func newVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the version of Perch",
		Long:  `Display detailed version information about the Perch CLI, including version number, git commit, build date, and Go version.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()

			if jsonOutput {
				rendered, err := formatter.FormatOutput(info, formatter.FormatJSON)
				if err != nil {
					return err
				}
				fmt.Println(rendered)
				return nil
			}

			printVersionInfo(info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version information as JSON")

	return cmd
}

// printVersionInfo prints the version information
func printVersionInfo(info versions.VersionInfo) {
	fmt.Printf("Perch %s\n", info.Version)
	fmt.Printf("Commit: %s\n", info.Commit)
	fmt.Printf("Built: %s\n", info.BuildDate)
	fmt.Printf("Go version: %s\n", info.GoVersion)
	fmt.Printf("Platform: %s\n", info.Platform)
}
