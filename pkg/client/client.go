// Package client provides the authenticated HTTP client that API commands
// use to reach the observability platform. It only needs a bearer token
// from the auth subsystem; resource-specific semantics live with their
// commands.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/perchlabs/perch/pkg/auth/storage"
	"github.com/perchlabs/perch/pkg/networking"
	"github.com/perchlabs/perch/pkg/useragent"
)

// Client is an HTTP client for one site whose transport attaches the
// Authorization header from a token source.
type Client struct {
	site       string
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given site backed by the credential store.
func New(site string, store storage.Storage, bearerOverride string) *Client {
	return NewWithTokenSource(site, fmt.Sprintf("https://api.%s", site),
		NewTokenSource(site, store, nil, bearerOverride))
}

// NewWithTokenSource creates a client with an explicit base URL and token
// source. Used by tests with a mock API server.
func NewWithTokenSource(site, baseURL string, source oauth2.TokenSource) *Client {
	return &Client{
		site:    site,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: networking.HTTPTimeout,
			Transport: &oauth2.Transport{
				Source: source,
				Base:   http.DefaultTransport,
			},
		},
	}
}

// Do performs an authenticated request against an API path.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", useragent.String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.site, err)
	}
	return resp, nil
}

// Validate checks that the current credentials are accepted by the API.
func (c *Client) Validate(ctx context.Context) error {
	resp, err := c.Do(ctx, http.MethodGet, "/api/v1/validate", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("credentials rejected by %s (status %d); run 'perch auth login'", c.site, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation request to %s failed with status %d", c.site, resp.StatusCode)
	}
	return nil
}
