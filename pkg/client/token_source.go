package client

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/perchlabs/perch/pkg/auth/oauth"
	"github.com/perchlabs/perch/pkg/auth/storage"
	"github.com/perchlabs/perch/pkg/logger"
)

// storeTokenSource implements oauth2.TokenSource on top of the credential
// store. When the stored access token is expired it refreshes through the
// stored refresh token and persists the result, so API commands keep
// working across token lifetimes without re-running the browser flow.
type storeTokenSource struct {
	site        string
	store       storage.Storage
	oauthClient *oauth.Client

	// bearerOverride bypasses the store entirely when set.
	bearerOverride string

	mu sync.Mutex
}

// NewTokenSource returns the token source used by API consumers. It shares
// the token-retrieval semantics of 'perch auth token', plus automatic
// refresh for expired tokens.
func NewTokenSource(site string, store storage.Storage, oauthClient *oauth.Client, bearerOverride string) oauth2.TokenSource {
	if oauthClient == nil {
		oauthClient = oauth.NewClient(site)
	}
	ts := &storeTokenSource{
		site:           site,
		store:          store,
		oauthClient:    oauthClient,
		bearerOverride: bearerOverride,
	}
	// ReuseTokenSource caches the token in memory until its expiry so we do
	// not read the store on every request.
	return oauth2.ReuseTokenSource(nil, ts)
}

// Token returns a valid token, refreshing and persisting when necessary.
func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bearerOverride != "" {
		return &oauth2.Token{AccessToken: s.bearerOverride, TokenType: "Bearer"}, nil
	}

	tokens, err := s.store.LoadTokens(s.site)
	if err != nil || tokens == nil {
		return nil, fmt.Errorf("not authenticated for %s; run 'perch auth login'", s.site)
	}

	if tokens.IsExpired() {
		if tokens.RefreshToken == "" {
			return nil, fmt.Errorf("access token for %s is expired and no refresh token is available; run 'perch auth login'", s.site)
		}

		creds, err := s.store.LoadClientCredentials(s.site)
		if err != nil || creds == nil {
			return nil, fmt.Errorf("no client registration found for %s; run 'perch auth login'", s.site)
		}

		fresh, err := s.oauthClient.RefreshToken(context.Background(), tokens.RefreshToken, creds)
		if err != nil {
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}

		// Persist-failure keeps the fresh token usable for this process;
		// concurrent CLI invocations resolve by last writer wins.
		if err := s.store.SaveTokens(s.site, fresh); err != nil {
			logger.Warnf("failed to persist refreshed token: %v", err)
		}
		tokens = fresh
	}

	return &oauth2.Token{
		AccessToken: tokens.AccessToken,
		TokenType:   tokens.TokenType,
		Expiry:      tokens.ExpiresAt(),
	}, nil
}
