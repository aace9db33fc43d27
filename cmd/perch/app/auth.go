package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/perchlabs/perch/pkg/auth"
	"github.com/perchlabs/perch/pkg/auth/oauth"
	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/formatter"
	"github.com/perchlabs/perch/pkg/logger"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with a Perch site",
		Long:  "The auth command provides subcommands to log in, log out, refresh tokens, and inspect authentication state.",
	}

	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthLogoutCommand(),
		newAuthStatusCommand(),
		newAuthRefreshCommand(),
		newAuthTokenCommand(),
	)

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var scopes []string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a Perch site through the browser",
		Long: `Log in to a Perch site interactively.

The command starts a local callback server, opens the authorization page in
your browser, and waits for you to approve access. The resulting tokens are
stored in the OS keychain when one is available, or in a permission-restricted
file otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site := resolveSite(cmd)
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}

			result, err := auth.Login(cmd.Context(), auth.LoginOptions{
				Site:    site,
				Storage: store,
				Scopes:  scopes,
				Timeout: timeout,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Logged in to %s\n", site)
			fmt.Printf("Credentials stored in %s (%s)\n", store.BackendType(), store.Location())
			if result.ReusedRegistration {
				logger.Debugf("reused existing client registration %s", result.Creds.ClientID)
			}
			if result.PersistErr != nil {
				fmt.Printf("Warning: tokens could not be saved: %v\n", result.PersistErr)
				fmt.Println("You are authenticated for this session, but the next command will require logging in again.")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "OAuth scopes to request (defaults to the standard read/write set)")
	cmd.Flags().DurationVar(&timeout, "timeout", auth.CallbackTimeout, "How long to wait for the browser callback")

	return cmd
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials for a Perch site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site := resolveSite(cmd)
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}

			if err := auth.Logout(site, store); err != nil {
				return err
			}
			fmt.Printf("Logged out of %s\n", site)
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authentication state for a Perch site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site := resolveSite(cmd)
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}

			info, err := auth.Status(site, store)
			if err != nil {
				return err
			}

			rendered, err := formatter.FormatOutput(info, outputFormat(output))
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

func newAuthRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the stored access token",
		Long: `Refresh the stored access token using the stored refresh token.

Fails when no refresh token is stored; run 'perch auth login' in that case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site := resolveSite(cmd)
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}

			tokens, err := auth.Refresh(cmd.Context(), site, store, oauth.NewClient(site))
			if err != nil {
				return err
			}

			fmt.Printf("Refreshed token for %s, valid until %s\n",
				site, tokens.ExpiresAt().Format(time.RFC3339))
			return nil
		},
	}
}

func newAuthTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the current access token",
		Long: `Print the current access token to stdout for use with other tools.

An explicitly configured bearer token (PERCH_BEARER_TOKEN) takes precedence
over the stored one. An expired stored token is an error, not output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site := resolveSite(cmd)
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}

			token, err := auth.AccessToken(site, store, config.BearerTokenOverride())
			if err != nil {
				return err
			}

			// Bare token on stdout so it can be piped into curl and friends.
			fmt.Println(token)
			return nil
		},
	}
}

// outputFormat resolves the effective output format: the flag wins, then the
// config file, then JSON.
func outputFormat(flag string) formatter.OutputFormat {
	if flag != "" {
		return formatter.OutputFormat(flag)
	}
	if cfg := config.GetConfig(); cfg.OutputFormat != "" {
		return formatter.OutputFormat(cfg.OutputFormat)
	}
	return formatter.FormatJSON
}
