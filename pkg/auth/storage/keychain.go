package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/zalando/go-keyring"

	"github.com/perchlabs/perch/pkg/auth/oauth"
	perrors "github.com/perchlabs/perch/pkg/errors"
)

const (
	// keychainService is the service name for perch keychain entries.
	keychainService = "perch-cli"

	// tokenKeyPrefix namespaces token entries per site.
	tokenKeyPrefix = "oauth:"

	// clientKeyPrefix namespaces client-registration entries per site.
	clientKeyPrefix = "client:"
)

// KeychainStorage delegates to the host OS secret-storage facility
// (macOS Keychain, Windows Credential Manager, or the freedesktop Secret
// Service) through go-keyring.
type KeychainStorage struct{}

// NewKeychainStorage creates keychain storage, verifying availability
// eagerly with a harmless read: a missing entry means the keychain works,
// any other failure means it does not.
func NewKeychainStorage() (*KeychainStorage, error) {
	if err := probeKeychain(); err != nil {
		return nil, perrors.NewStorageError("OS keychain is not available", err)
	}
	return &KeychainStorage{}, nil
}

func probeKeychain() error {
	_, err := keyring.Get(keychainService, "availability-check")
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// IsKeychainAvailable reports whether the OS keychain can be used. It is
// false in headless environments, CI, and most containers.
func IsKeychainAvailable() bool {
	return probeKeychain() == nil
}

// BackendType returns BackendKeychain.
func (*KeychainStorage) BackendType() BackendType {
	return BackendKeychain
}

// Location returns a human-readable name for the OS secret store.
func (*KeychainStorage) Location() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	case "linux":
		return "System Keychain (Secret Service)"
	default:
		return "System Keychain"
	}
}

// SaveTokens stores the token set under the site's token entry.
func (*KeychainStorage) SaveTokens(site string, tokens *oauth.TokenSet) error {
	return setEntry(tokenKeyPrefix+SanitizeSite(site), tokens, "tokens")
}

// LoadTokens returns the token set for a site, or nil when absent.
func (*KeychainStorage) LoadTokens(site string) (*oauth.TokenSet, error) {
	var tokens oauth.TokenSet
	ok, err := getEntry(tokenKeyPrefix+SanitizeSite(site), &tokens, "tokens")
	if err != nil || !ok {
		return nil, err
	}
	return &tokens, nil
}

// DeleteTokens removes the token entry for a site.
func (*KeychainStorage) DeleteTokens(site string) error {
	return deleteEntry(tokenKeyPrefix+SanitizeSite(site), "tokens")
}

// SaveClientCredentials stores the registration under the site's client entry.
func (*KeychainStorage) SaveClientCredentials(site string, creds *oauth.ClientCredentials) error {
	return setEntry(clientKeyPrefix+SanitizeSite(site), creds, "client credentials")
}

// LoadClientCredentials returns the registration for a site, or nil when absent.
func (*KeychainStorage) LoadClientCredentials(site string) (*oauth.ClientCredentials, error) {
	var creds oauth.ClientCredentials
	ok, err := getEntry(clientKeyPrefix+SanitizeSite(site), &creds, "client credentials")
	if err != nil || !ok {
		return nil, err
	}
	return &creds, nil
}

// DeleteClientCredentials removes the registration entry for a site.
func (*KeychainStorage) DeleteClientCredentials(site string) error {
	return deleteEntry(clientKeyPrefix+SanitizeSite(site), "client credentials")
}

func setEntry(key string, record any, kind string) error {
	data, err := json.Marshal(record)
	if err != nil {
		return perrors.NewStorageError(fmt.Sprintf("failed to marshal %s", kind), err)
	}
	if err := keyring.Set(keychainService, key, string(data)); err != nil {
		return perrors.NewStorageError(fmt.Sprintf("failed to save %s to keychain", kind), err)
	}
	return nil
}

func getEntry(key string, record any, kind string) (bool, error) {
	value, err := keyring.Get(keychainService, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return false, nil
		}
		return false, perrors.NewStorageError(fmt.Sprintf("failed to load %s from keychain", kind), err)
	}

	if err := json.Unmarshal([]byte(value), record); err != nil {
		return false, perrors.NewStorageError(fmt.Sprintf("corrupt %s entry in keychain", kind), err)
	}
	return true, nil
}

func deleteEntry(key, kind string) error {
	if err := keyring.Delete(keychainService, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return perrors.NewStorageError(fmt.Sprintf("failed to delete %s from keychain", kind), err)
	}
	return nil
}
