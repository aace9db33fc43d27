package storage

import (
	"fmt"
	"os"

	"github.com/perchlabs/perch/pkg/logger"
)

// EnvVar selects the storage backend explicitly: "file" or "keychain".
const EnvVar = "PERCH_TOKEN_STORAGE"

// Options configures backend selection.
type Options struct {
	// ForceBackend skips detection and uses the named backend.
	ForceBackend BackendType

	// StorageDir overrides the file backend's directory. Used by tests.
	StorageDir string
}

// Open constructs the credential store for this process. The caller owns the
// returned handle and injects it into every command; nothing here is cached
// globally.
//
// Selection order: Options.ForceBackend, then the PERCH_TOKEN_STORAGE
// environment variable, then auto-detection (keychain if available, file
// otherwise, with a warning so a security-posture downgrade never goes
// unnoticed).
func Open(opts *Options) (Storage, error) {
	if opts == nil {
		opts = &Options{}
	}

	backend := opts.ForceBackend
	if backend == "" {
		backend = backendFromEnv()
	}
	if backend == "" {
		backend = detectBackend()
	}

	return create(backend, opts)
}

// backendFromEnv reads the explicit override. An unrecognized value falls
// back to auto-detection with a warning rather than failing the command.
func backendFromEnv() BackendType {
	value := os.Getenv(EnvVar)
	switch value {
	case "":
		return ""
	case string(BackendFile):
		return BackendFile
	case string(BackendKeychain):
		return BackendKeychain
	default:
		logger.Warnf("unrecognized %s value %q (must be %q or %q); auto-detecting storage backend",
			EnvVar, value, BackendFile, BackendKeychain)
		return ""
	}
}

func detectBackend() BackendType {
	if IsKeychainAvailable() {
		return BackendKeychain
	}

	logger.Warnf("OS keychain not available, falling back to file-based token storage. "+
		"Tokens will be stored with 0600 permissions. Set %s=file to suppress this warning.", EnvVar)
	return BackendFile
}

func create(backend BackendType, opts *Options) (Storage, error) {
	switch backend {
	case BackendKeychain:
		return NewKeychainStorage()
	case BackendFile:
		if opts.StorageDir != "" {
			return NewFileStorageAt(opts.StorageDir)
		}
		return NewFileStorage()
	case BackendNone:
		return NewNoopStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend type: %s", backend)
	}
}
