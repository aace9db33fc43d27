package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenForceFile(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	t.Setenv(EnvVar, "")

	store, err := Open(&Options{ForceBackend: BackendFile, StorageDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, BackendFile, store.BackendType())
}

func TestOpenForceNone(t *testing.T) {
	t.Parallel()

	store, err := Open(&Options{ForceBackend: BackendNone})
	require.NoError(t, err)
	assert.Equal(t, BackendNone, store.BackendType())
}

func TestOpenUnknownForcedBackend(t *testing.T) {
	t.Parallel()

	_, err := Open(&Options{ForceBackend: "vault"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestOpenEnvSelectsFile(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	t.Setenv(EnvVar, "file")

	store, err := Open(&Options{StorageDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, BackendFile, store.BackendType())
}

func TestBackendFromEnvUnrecognizedFallsThrough(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	// An unrecognized value must not fail the command; selection falls
	// through to auto-detection.
	t.Setenv(EnvVar, "carrier-pigeon")
	assert.Equal(t, BackendType(""), backendFromEnv())

	t.Setenv(EnvVar, "keychain")
	assert.Equal(t, BackendKeychain, backendFromEnv())

	t.Setenv(EnvVar, "")
	assert.Equal(t, BackendType(""), backendFromEnv())
}
