// Package storage persists OAuth tokens and client registrations per site.
//
// Three backends implement the same capability: the OS keychain, permission
// restricted files, and a no-op store for environments with no persistent
// storage at all. Selection happens once at process start; see Open.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/perchlabs/perch/pkg/auth/oauth"
	perrors "github.com/perchlabs/perch/pkg/errors"
)

// BackendType identifies a storage backend.
type BackendType string

const (
	// BackendKeychain stores records in the OS secret-storage facility.
	BackendKeychain BackendType = "keychain"

	// BackendFile stores records as owner-only files under the per-user
	// config directory. The default fallback.
	BackendFile BackendType = "file"

	// BackendNone persists nothing; used where no storage is reachable.
	BackendNone BackendType = "none"
)

// Storage is the credential-store capability. Every Load method returns
// (nil, nil) when the record is absent; an error always means a genuine
// I/O or permission failure, never "not found".
type Storage interface {
	// BackendType returns the type of this backend.
	BackendType() BackendType

	// Location returns a human-readable description of where records live,
	// for status output.
	Location() string

	// SaveTokens persists the token set for a site, overwriting any
	// previous record wholesale.
	SaveTokens(site string, tokens *oauth.TokenSet) error

	// LoadTokens returns the token set for a site, or nil when absent.
	LoadTokens(site string) (*oauth.TokenSet, error)

	// DeleteTokens removes the token record for a site. Deleting an absent
	// record is not an error.
	DeleteTokens(site string) error

	// SaveClientCredentials persists the DCR registration for a site.
	SaveClientCredentials(site string, creds *oauth.ClientCredentials) error

	// LoadClientCredentials returns the registration for a site, or nil
	// when absent.
	LoadClientCredentials(site string) (*oauth.ClientCredentials, error)

	// DeleteClientCredentials removes the registration record for a site.
	DeleteClientCredentials(site string) error
}

// FileStorage keeps one JSON file per record under a config directory.
type FileStorage struct {
	baseDir string
}

// NewFileStorage creates file storage under the per-user config directory.
func NewFileStorage() (*FileStorage, error) {
	return NewFileStorageAt(filepath.Join(xdg.ConfigHome, "perch"))
}

// NewFileStorageAt creates file storage rooted at an explicit directory.
func NewFileStorageAt(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, perrors.NewStorageError(
			fmt.Sprintf("failed to create storage directory %s", baseDir), err)
	}
	return &FileStorage{baseDir: baseDir}, nil
}

// BackendType returns BackendFile.
func (*FileStorage) BackendType() BackendType {
	return BackendFile
}

// Location returns the storage directory path.
func (s *FileStorage) Location() string {
	return s.baseDir
}

func (s *FileStorage) tokensPath(site string) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("tokens_%s.json", SanitizeSite(site)))
}

func (s *FileStorage) clientPath(site string) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("client_%s.json", SanitizeSite(site)))
}

// SaveTokens writes the token record in one shot with owner-only permissions.
func (s *FileStorage) SaveTokens(site string, tokens *oauth.TokenSet) error {
	return s.writeRecord(s.tokensPath(site), tokens, "tokens")
}

// LoadTokens reads the token record, returning nil when absent.
func (s *FileStorage) LoadTokens(site string) (*oauth.TokenSet, error) {
	var tokens oauth.TokenSet
	ok, err := s.readRecord(s.tokensPath(site), &tokens, "tokens")
	if err != nil || !ok {
		return nil, err
	}
	return &tokens, nil
}

// DeleteTokens removes the token record.
func (s *FileStorage) DeleteTokens(site string) error {
	return s.deleteRecord(s.tokensPath(site), "tokens")
}

// SaveClientCredentials writes the registration record.
func (s *FileStorage) SaveClientCredentials(site string, creds *oauth.ClientCredentials) error {
	return s.writeRecord(s.clientPath(site), creds, "client credentials")
}

// LoadClientCredentials reads the registration record, returning nil when absent.
func (s *FileStorage) LoadClientCredentials(site string) (*oauth.ClientCredentials, error) {
	var creds oauth.ClientCredentials
	ok, err := s.readRecord(s.clientPath(site), &creds, "client credentials")
	if err != nil || !ok {
		return nil, err
	}
	return &creds, nil
}

// DeleteClientCredentials removes the registration record.
func (s *FileStorage) DeleteClientCredentials(site string) error {
	return s.deleteRecord(s.clientPath(site), "client credentials")
}

// writeRecord marshals and writes a whole record at once so a crash cannot
// leave a partially written file behind a partially valid prefix.
func (*FileStorage) writeRecord(path string, record any, kind string) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return perrors.NewStorageError(fmt.Sprintf("failed to marshal %s", kind), err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return perrors.NewStorageError(fmt.Sprintf("failed to write %s", kind), err)
	}
	return nil
}

func (*FileStorage) readRecord(path string, record any, kind string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, perrors.NewStorageError(fmt.Sprintf("failed to read %s", kind), err)
	}

	if err := json.Unmarshal(data, record); err != nil {
		return false, perrors.NewStorageError(fmt.Sprintf("corrupt %s record at %s", kind, path), err)
	}
	return true, nil
}

func (*FileStorage) deleteRecord(path, kind string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return perrors.NewStorageError(fmt.Sprintf("failed to delete %s", kind), err)
	}
	return nil
}

// SanitizeSite maps a site string to a safe record key: every character
// outside [A-Za-z0-9] becomes an underscore. Save and load must agree on
// this mapping, so it lives in one place.
func SanitizeSite(site string) string {
	out := make([]byte, 0, len(site))
	for i := 0; i < len(site); i++ {
		c := site[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
