// Package errors defines the error categories used by the authentication
// subsystem and the helpers to create and classify them.
package errors

import (
	"errors"
	"fmt"
)

// Error types
const (
	// ErrConfig is returned for configuration problems, such as no usable
	// redirect port or a malformed site.
	ErrConfig = "config"

	// ErrProtocol is returned when the identity provider rejects a request
	// or reports an error through the callback.
	ErrProtocol = "protocol"

	// ErrSecurity is returned when a security check fails, such as a state
	// parameter mismatch.
	ErrSecurity = "security"

	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = "timeout"

	// ErrStorage is returned when the credential store is unavailable or an
	// operation on it fails.
	ErrStorage = "storage"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a new configuration error
func NewConfigError(message string, cause error) *Error {
	return NewError(ErrConfig, message, cause)
}

// NewProtocolError creates a new identity-provider protocol error
func NewProtocolError(message string, cause error) *Error {
	return NewError(ErrProtocol, message, cause)
}

// NewSecurityError creates a new security error
func NewSecurityError(message string, cause error) *Error {
	return NewError(ErrSecurity, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *Error {
	return NewError(ErrTimeout, message, cause)
}

// NewStorageError creates a new storage error
func NewStorageError(message string, cause error) *Error {
	return NewError(ErrStorage, message, cause)
}

func isType(err error, errorType string) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == errorType
}

// IsConfig checks if the error is a configuration error
func IsConfig(err error) bool {
	return isType(err, ErrConfig)
}

// IsProtocol checks if the error is a protocol error
func IsProtocol(err error) bool {
	return isType(err, ErrProtocol)
}

// IsSecurity checks if the error is a security error
func IsSecurity(err error) bool {
	return isType(err, ErrSecurity)
}

// IsTimeout checks if the error is a timeout error
func IsTimeout(err error) bool {
	return isType(err, ErrTimeout)
}

// IsStorage checks if the error is a storage error
func IsStorage(err error) bool {
	return isType(err, ErrStorage)
}
