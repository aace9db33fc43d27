// Package auth sequences the interactive OAuth2 login flow and the
// session operations built on top of it: status, refresh, logout, and
// access-token retrieval.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/perchlabs/perch/pkg/auth/callback"
	"github.com/perchlabs/perch/pkg/auth/oauth"
	"github.com/perchlabs/perch/pkg/auth/storage"
	perrors "github.com/perchlabs/perch/pkg/errors"
	"github.com/perchlabs/perch/pkg/logger"
)

// CallbackTimeout bounds the full browser round-trip. An interactive CLI
// must never hang indefinitely on a human.
const CallbackTimeout = 5 * time.Minute

// DefaultScopes are the OAuth scopes requested during login.
func DefaultScopes() []string {
	return []string{
		"dashboards_read",
		"dashboards_write",
		"monitors_read",
		"monitors_write",
		"metrics_read",
		"logs_read",
		"slos_read",
		"slos_write",
		"events_read",
		"incidents_read",
		"usage_read",
	}
}

// LoginOptions configures one login attempt. Storage and Site are required;
// everything else has a production default and exists so tests can slot in
// a mock identity provider and a synthetic browser.
type LoginOptions struct {
	Site    string
	Storage storage.Storage
	Scopes  []string

	// Client overrides the identity-provider client. Defaults to the real
	// endpoints for Site.
	Client *oauth.Client

	// NewCallbackServer overrides callback-server construction so tests can
	// use unreserved ports.
	NewCallbackServer func() (*callback.Server, error)

	// OpenBrowser is called with the authorization URL. Defaults to opening
	// the system browser; a failure there is not fatal since the URL is
	// always printed for manual use.
	OpenBrowser func(url string) error

	// Timeout bounds the callback wait. Defaults to CallbackTimeout.
	Timeout time.Duration
}

// LoginResult is the outcome of a successful authorization.
type LoginResult struct {
	Tokens *oauth.TokenSet
	Creds  *oauth.ClientCredentials

	// ReusedRegistration is true when a persisted client registration was
	// found and DCR was skipped.
	ReusedRegistration bool

	// PersistErr is non-nil when the token was obtained but could not be
	// saved. The caller must surface it so the user understands why the
	// next command may prompt for auth again.
	PersistErr error
}

func (o LoginOptions) withDefaults() LoginOptions {
	if o.Scopes == nil {
		o.Scopes = DefaultScopes()
	}
	if o.Client == nil {
		o.Client = oauth.NewClient(o.Site)
	}
	if o.NewCallbackServer == nil {
		o.NewCallbackServer = callback.NewServer
	}
	if o.OpenBrowser == nil {
		o.OpenBrowser = openSystemBrowser
	}
	if o.Timeout == 0 {
		o.Timeout = CallbackTimeout
	}
	return o
}

// Login drives one complete interactive authorization for opts.Site: bind
// the callback server, reuse or perform client registration, send the
// user's browser to the authorize endpoint, wait for the redirect, validate
// it, exchange the code, and persist the result.
func Login(ctx context.Context, opts LoginOptions) (*LoginResult, error) {
	opts = opts.withDefaults()

	// A persisted registration is reused indefinitely; registration is not
	// cheap to repeat on every login. A failed read is treated as absent,
	// not fatal: re-registering recovers.
	creds, err := opts.Storage.LoadClientCredentials(opts.Site)
	if err != nil {
		logger.Warnf("could not read stored client registration, registering a new client: %v", err)
		creds = nil
	}

	server, err := opts.NewCallbackServer()
	if err != nil {
		return nil, err
	}
	server.Start()
	defer func() {
		if stopErr := server.Stop(); stopErr != nil {
			logger.Warnf("failed to stop callback server: %v", stopErr)
		}
	}()

	reused := creds != nil
	if creds == nil {
		creds, err = opts.Client.Register(ctx, callback.AllRedirectURIs())
		if err != nil {
			return nil, fmt.Errorf("client registration failed: %w", err)
		}
		if saveErr := opts.Storage.SaveClientCredentials(opts.Site, creds); saveErr != nil {
			// Not fatal: the in-memory registration carries this login, and
			// the next one simply registers again.
			logger.Warnf("failed to persist client registration: %v", saveErr)
		}
	}

	pkce, err := oauth.GeneratePKCEChallenge()
	if err != nil {
		return nil, err
	}
	state, err := oauth.GenerateState()
	if err != nil {
		return nil, err
	}

	redirectURI := server.RedirectURI()
	authURL := opts.Client.BuildAuthorizationURL(creds.ClientID, redirectURI, state, pkce, opts.Scopes)

	if err := opts.OpenBrowser(authURL); err != nil {
		logger.Warnf("could not open browser automatically: %v", err)
	}

	result, err := server.WaitForCallback(ctx, opts.Timeout)
	if err != nil {
		return nil, err
	}

	// An error reported by the identity provider (for example the user
	// denying consent) terminates the flow verbatim; there is nothing to
	// exchange.
	if result.Error != "" {
		detail := result.Error
		if result.ErrorDescription != "" {
			detail = fmt.Sprintf("%s: %s", result.Error, result.ErrorDescription)
		}
		return nil, perrors.NewProtocolError(fmt.Sprintf("authorization failed: %s", detail), nil)
	}

	// State comparison is exact and happens before the code is looked at.
	// A mismatch is rejected even when a valid-looking code is present.
	if result.State != state {
		return nil, perrors.NewSecurityError("state parameter mismatch, possible CSRF attempt", nil)
	}

	if result.Code == "" {
		return nil, perrors.NewProtocolError("callback carried no authorization code", nil)
	}

	tokens, err := opts.Client.ExchangeCode(ctx, result.Code, redirectURI, pkce.Verifier, creds)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	loginResult := &LoginResult{
		Tokens:             tokens,
		Creds:              creds,
		ReusedRegistration: reused,
	}

	// Authentication succeeded even if persistence does not; the caller
	// reports the failure instead of discarding the token.
	if err := opts.Storage.SaveTokens(opts.Site, tokens); err != nil {
		loginResult.PersistErr = err
	}

	return loginResult, nil
}

// Logout deletes the token and the client registration for a site, so a
// subsequent login re-registers cleanly.
func Logout(site string, store storage.Storage) error {
	if err := store.DeleteTokens(site); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	if err := store.DeleteClientCredentials(site); err != nil {
		return fmt.Errorf("failed to delete client credentials: %w", err)
	}
	return nil
}

// Refresh exchanges the stored refresh token for a fresh token set and
// overwrites the stored record.
func Refresh(ctx context.Context, site string, store storage.Storage, client *oauth.Client) (*oauth.TokenSet, error) {
	if client == nil {
		client = oauth.NewClient(site)
	}

	tokens, err := store.LoadTokens(site)
	if err != nil {
		return nil, err
	}
	if tokens == nil || tokens.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token available for %s; run 'perch auth login'", site)
	}

	creds, err := store.LoadClientCredentials(site)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, fmt.Errorf("no client registration found for %s; run 'perch auth login'", site)
	}

	fresh, err := client.RefreshToken(ctx, tokens.RefreshToken, creds)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	if err := store.SaveTokens(site, fresh); err != nil {
		return fresh, err
	}
	return fresh, nil
}

// StatusInfo is the read-only authentication state for a site.
type StatusInfo struct {
	Site            string             `json:"site"`
	Backend         storage.BackendType `json:"storage_backend"`
	StorageLocation string             `json:"storage_location"`
	Authenticated   bool               `json:"authenticated"`
	Expired         bool               `json:"expired,omitempty"`
	HasRefreshToken bool               `json:"has_refresh_token,omitempty"`
	ExpiresAt       string             `json:"expires_at,omitempty"`
	MinutesLeft     int                `json:"minutes_left,omitempty"`
}

// Status reports whether a token is present for the site and whether it is
// expired. Expiry is always computed, never trusted from a stored flag.
func Status(site string, store storage.Storage) (*StatusInfo, error) {
	info := &StatusInfo{
		Site:            site,
		Backend:         store.BackendType(),
		StorageLocation: store.Location(),
	}

	tokens, err := store.LoadTokens(site)
	if err != nil {
		// A broken store is a normal unauthenticated state for read-only
		// status, not a failure to report.
		logger.Debugf("failed to load tokens for status: %v", err)
		return info, nil
	}
	if tokens == nil {
		return info, nil
	}

	info.HasRefreshToken = tokens.RefreshToken != ""
	info.ExpiresAt = tokens.ExpiresAt().Format(time.RFC3339)
	if tokens.IsExpired() {
		info.Expired = true
		return info, nil
	}

	info.Authenticated = true
	info.MinutesLeft = int(time.Until(tokens.ExpiresAt()).Minutes())
	return info, nil
}

// AccessToken is the single token-retrieval path used by the token
// sub-command and by API consumers. An explicitly configured bearer token
// wins over the stored one; an expired stored token is an error rather than
// a value known to be stale.
func AccessToken(site string, store storage.Storage, bearerOverride string) (string, error) {
	if bearerOverride != "" {
		return bearerOverride, nil
	}

	tokens, err := store.LoadTokens(site)
	if err != nil {
		return "", fmt.Errorf("not authenticated for %s; run 'perch auth login'", site)
	}
	if tokens == nil {
		return "", fmt.Errorf("not authenticated for %s; run 'perch auth login'", site)
	}
	if tokens.IsExpired() {
		return "", fmt.Errorf("access token for %s is expired; run 'perch auth refresh' or 'perch auth login'", site)
	}

	return tokens.AccessToken, nil
}
