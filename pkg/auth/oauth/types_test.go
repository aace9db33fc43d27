package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenSetIsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now().Unix()

	tests := []struct {
		name    string
		tokens  TokenSet
		expired bool
	}{
		{
			name:    "fresh token",
			tokens:  TokenSet{IssuedAt: now, ExpiresIn: 3600},
			expired: false,
		},
		{
			name:    "past expiry",
			tokens:  TokenSet{IssuedAt: now - 7200, ExpiresIn: 3600},
			expired: true,
		},
		{
			name: "inside safety buffer",
			// 100 seconds of nominal lifetime left, under the 300 second buffer.
			tokens:  TokenSet{IssuedAt: now - 3500, ExpiresIn: 3600},
			expired: true,
		},
		{
			name:    "just outside safety buffer",
			tokens:  TokenSet{IssuedAt: now, ExpiresIn: 400},
			expired: false,
		},
		{
			name:    "lifetime shorter than buffer",
			tokens:  TokenSet{IssuedAt: now, ExpiresIn: 200},
			expired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expired, tt.tokens.IsExpired())
		})
	}
}

func TestTokenSetExpiresAt(t *testing.T) {
	t.Parallel()

	tokens := TokenSet{IssuedAt: 1_000_000, ExpiresIn: 3600}
	assert.Equal(t, time.Unix(1_003_600, 0), tokens.ExpiresAt())
}

func TestOAuthErrorString(t *testing.T) {
	t.Parallel()

	withDescription := OAuthError{Code: "access_denied", Description: "the user declined"}
	assert.Equal(t, "the user declined", withDescription.String())

	codeOnly := OAuthError{Code: "access_denied"}
	assert.Equal(t, "access_denied", codeOnly.String())
}
