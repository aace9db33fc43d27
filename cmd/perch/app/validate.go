package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perchlabs/perch/pkg/client"
	"github.com/perchlabs/perch/pkg/config"
)

// newValidateCmd creates the validate command for checking API credentials
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the current credentials are accepted by the API",
		Long: `Check that the current credentials are accepted by the Perch API.

Uses the stored token for the resolved site, refreshing it when expired, or
the PERCH_BEARER_TOKEN environment variable when set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site := resolveSite(cmd)
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}

			api := client.New(site, store, config.BearerTokenOverride())
			if err := api.Validate(cmd.Context()); err != nil {
				return err
			}

			fmt.Printf("Credentials for %s are valid\n", site)
			return nil
		},
	}
}
