package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without cause",
			err:      NewTimeoutError("OAuth callback timed out", nil),
			expected: "timeout: OAuth callback timed out",
		},
		{
			name:     "with cause",
			err:      NewStorageError("failed to save tokens", errors.New("permission denied")),
			expected: "storage: failed to save tokens: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying")
	err := NewProtocolError("registration failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"config error is config", NewConfigError("bad site", nil), IsConfig, true},
		{"protocol error is protocol", NewProtocolError("401", nil), IsProtocol, true},
		{"security error is security", NewSecurityError("state mismatch", nil), IsSecurity, true},
		{"timeout error is timeout", NewTimeoutError("deadline", nil), IsTimeout, true},
		{"storage error is storage", NewStorageError("no backend", nil), IsStorage, true},
		{"security error is not protocol", NewSecurityError("state mismatch", nil), IsProtocol, false},
		{"plain error is nothing", errors.New("plain"), IsTimeout, false},
		{"wrapped typed error still classifies", fmt.Errorf("login failed: %w", NewSecurityError("state mismatch", nil)), IsSecurity, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}
