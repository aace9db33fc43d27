package app

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/formatter"
)

func siteTestCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("site", "", "")
	return cmd
}

func TestResolveSite(t *testing.T) { //nolint:paralleltest // mutates the config singleton
	config.SetSingletonConfig(&config.Config{Site: "configured.perchdata.com"})
	t.Cleanup(config.ResetSingleton)
	t.Setenv(config.SiteEnvVar, "")

	cmd := siteTestCmd(t)
	assert.Equal(t, "configured.perchdata.com", resolveSite(cmd))

	require.NoError(t, cmd.Flags().Set("site", "flag.perchdata.com"))
	assert.Equal(t, "flag.perchdata.com", resolveSite(cmd))
}

func TestResolveSiteEnvOverridesConfig(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	config.SetSingletonConfig(&config.Config{Site: "configured.perchdata.com"})
	t.Cleanup(config.ResetSingleton)
	t.Setenv(config.SiteEnvVar, "env.perchdata.com")

	assert.Equal(t, "env.perchdata.com", resolveSite(siteTestCmd(t)))
}

func TestOutputFormat(t *testing.T) { //nolint:paralleltest // mutates the config singleton
	config.SetSingletonConfig(&config.Config{OutputFormat: "table"})
	t.Cleanup(config.ResetSingleton)

	assert.Equal(t, formatter.FormatYAML, outputFormat("yaml"), "the flag wins")
	assert.Equal(t, formatter.FormatTable, outputFormat(""), "then the config file")

	config.SetSingletonConfig(&config.Config{})
	assert.Equal(t, formatter.FormatJSON, outputFormat(""), "then JSON")
}

func TestNewRootCmdRegistersSubcommands(t *testing.T) { //nolint:paralleltest // rootCmd is package state
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"auth", "config", "validate", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, root.PersistentFlags().Lookup("site"))
	assert.NotNil(t, root.PersistentFlags().Lookup("token-storage"))
}
