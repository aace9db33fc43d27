package app

import (
	"github.com/spf13/cobra"

	"github.com/perchlabs/perch/pkg/auth/storage"
	"github.com/perchlabs/perch/pkg/config"
)

// resolveSite picks the site for this invocation: the --site flag wins,
// then PERCH_SITE, then the config file, then the built-in default.
func resolveSite(cmd *cobra.Command) string {
	if site, _ := cmd.Flags().GetString("site"); site != "" {
		return site
	}
	return config.GetConfig().ResolvedSite()
}

// openStorage constructs the credential store for this invocation. The
// handle is created once per command and passed down; nothing caches it.
func openStorage(cmd *cobra.Command) (storage.Storage, error) {
	backend, _ := cmd.Flags().GetString("token-storage")
	return storage.Open(&storage.Options{
		ForceBackend: storage.BackendType(backend),
	})
}
