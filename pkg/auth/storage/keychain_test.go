package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// The mock keyring is process-global, so these tests do not run in parallel.

func TestKeychainStorageRoundTrip(t *testing.T) { //nolint:paralleltest // mock keyring is global
	keyring.MockInit()

	store, err := NewKeychainStorage()
	require.NoError(t, err)
	assert.Equal(t, BackendKeychain, store.BackendType())
	assert.NotEmpty(t, store.Location())

	loaded, err := store.LoadTokens(testSite)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	saved := testTokens()
	require.NoError(t, store.SaveTokens(testSite, saved))

	loaded, err = store.LoadTokens(testSite)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	require.NoError(t, store.DeleteTokens(testSite))
	loaded, err = store.LoadTokens(testSite)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting again is not an error.
	assert.NoError(t, store.DeleteTokens(testSite))
}

func TestKeychainStorageClientCredentials(t *testing.T) { //nolint:paralleltest // mock keyring is global
	keyring.MockInit()

	store, err := NewKeychainStorage()
	require.NoError(t, err)

	saved := testCreds()
	require.NoError(t, store.SaveClientCredentials(testSite, saved))

	loaded, err := store.LoadClientCredentials(testSite)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	// Token and registration entries are namespaced apart.
	tokens, err := store.LoadTokens(testSite)
	require.NoError(t, err)
	assert.Nil(t, tokens)

	require.NoError(t, store.DeleteClientCredentials(testSite))
	loaded, err = store.LoadClientCredentials(testSite)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestIsKeychainAvailable(t *testing.T) { //nolint:paralleltest // mock keyring is global
	keyring.MockInit()

	// A missing availability-check entry still counts as available; only a
	// failing keychain does not.
	assert.True(t, IsKeychainAvailable())
}

func TestKeychainStorageCorruptEntry(t *testing.T) { //nolint:paralleltest // mock keyring is global
	keyring.MockInit()

	require.NoError(t, keyring.Set(keychainService, tokenKeyPrefix+SanitizeSite(testSite), "not json"))
	t.Cleanup(func() {
		_ = keyring.Delete(keychainService, tokenKeyPrefix+SanitizeSite(testSite))
	})

	store, err := NewKeychainStorage()
	require.NoError(t, err)

	_, err = store.LoadTokens(testSite)
	require.Error(t, err)
}
