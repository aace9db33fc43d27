package storage

import (
	"github.com/perchlabs/perch/pkg/auth/oauth"
	perrors "github.com/perchlabs/perch/pkg/errors"
)

// NoopStorage is used where no persistent storage is reachable, such as a
// browser-sandboxed build. Saves fail loudly so the user learns their
// session will not survive the process; loads report absent; deletes are
// no-ops.
type NoopStorage struct{}

// NewNoopStorage creates the no-op backend.
func NewNoopStorage() *NoopStorage {
	return &NoopStorage{}
}

// BackendType returns BackendNone.
func (*NoopStorage) BackendType() BackendType {
	return BackendNone
}

// Location describes the absence of storage.
func (*NoopStorage) Location() string {
	return "none (credentials are not persisted)"
}

func noopSaveError() error {
	return perrors.NewStorageError("no persistent credential storage is available on this platform", nil)
}

// SaveTokens always fails: there is nowhere to persist.
func (*NoopStorage) SaveTokens(string, *oauth.TokenSet) error {
	return noopSaveError()
}

// LoadTokens always reports absent.
func (*NoopStorage) LoadTokens(string) (*oauth.TokenSet, error) {
	return nil, nil
}

// DeleteTokens is a no-op.
func (*NoopStorage) DeleteTokens(string) error {
	return nil
}

// SaveClientCredentials always fails: there is nowhere to persist.
func (*NoopStorage) SaveClientCredentials(string, *oauth.ClientCredentials) error {
	return noopSaveError()
}

// LoadClientCredentials always reports absent.
func (*NoopStorage) LoadClientCredentials(string) (*oauth.ClientCredentials, error) {
	return nil, nil
}

// DeleteClientCredentials is a no-op.
func (*NoopStorage) DeleteClientCredentials(string) error {
	return nil
}
