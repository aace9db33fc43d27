// Package oauth implements the OAuth 2.0 pieces of the perch login flow:
// PKCE generation, Dynamic Client Registration (RFC 7591), and the
// authorization-code and refresh-token grants.
package oauth

import (
	"time"
)

// expiryBuffer is subtracted from the token lifetime so a command never
// starts an API call with a token that might expire mid-flight.
const expiryBuffer = 300 // seconds

// TokenSet is the persisted result of a successful authorization.
type TokenSet struct {
	// AccessToken is the opaque bearer token presented to the API.
	AccessToken string `json:"access_token"`

	// RefreshToken may be empty if the identity provider omits rotation.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType defaults to "Bearer" when absent from the provider response.
	TokenType string `json:"token_type"`

	// ExpiresIn is the token lifetime in seconds, as returned by the provider.
	ExpiresIn int64 `json:"expires_in"`

	// IssuedAt is stamped locally at exchange time (Unix seconds). The
	// provider's clock is not trusted.
	IssuedAt int64 `json:"issued_at"`

	// Scope holds the space-delimited granted scopes, possibly empty.
	Scope string `json:"scope,omitempty"`

	// ClientID identifies the registered client this token was minted for.
	ClientID string `json:"client_id"`
}

// IsExpired reports whether the access token is expired or will expire
// within the safety buffer.
func (t *TokenSet) IsExpired() bool {
	return time.Now().Unix() >= t.IssuedAt+t.ExpiresIn-expiryBuffer
}

// ExpiresAt returns the instant the access token actually expires,
// without the safety buffer.
func (t *TokenSet) ExpiresAt() time.Time {
	return time.Unix(t.IssuedAt+t.ExpiresIn, 0)
}

// ClientCredentials is the Dynamic Client Registration record for a site.
// At most one record per site is persisted; it is reused indefinitely until
// the user logs out, since registration is not cheap to repeat on every login.
type ClientCredentials struct {
	ClientID     string   `json:"client_id"`
	ClientName   string   `json:"client_name"`
	RedirectURIs []string `json:"redirect_uris"`
	RegisteredAt int64    `json:"registered_at"`
	Site         string   `json:"site"`
}

// OAuthError is the standard error body returned by OAuth 2.0 endpoints.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	URI         string `json:"error_uri,omitempty"`
}

// String returns the human-meaningful part of the error, preferring the
// description over the bare error code.
func (e OAuthError) String() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}
