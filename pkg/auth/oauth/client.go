package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/perchlabs/perch/pkg/errors"
	"github.com/perchlabs/perch/pkg/logger"
	"github.com/perchlabs/perch/pkg/networking"
)

// ClientName identifies this application to the identity provider
// during Dynamic Client Registration.
const ClientName = "Perch CLI"

// Grant types requested at registration time.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// maxErrorBody bounds how much of an identity-provider error response is
// echoed back to the user.
const maxErrorBody = 512

// registrationRequest is the RFC 7591 registration body. The platform's
// DCR endpoint only honors these three fields.
type registrationRequest struct {
	ClientName   string   `json:"client_name"`
	RedirectURIs []string `json:"redirect_uris"`
	GrantTypes   []string `json:"grant_types"`
}

// registrationResponse is the subset of the RFC 7591 response we keep.
type registrationResponse struct {
	ClientID     string   `json:"client_id"`
	ClientName   string   `json:"client_name"`
	RedirectURIs []string `json:"redirect_uris"`
}

// tokenResponse is the token endpoint response for both grant types.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// Client talks to the identity-provider endpoints of one site.
type Client struct {
	site       string
	apiBaseURL string
	appBaseURL string
	httpClient *http.Client
}

// NewClient creates an identity-provider client for the given site.
func NewClient(site string) *Client {
	return &Client{
		site:       site,
		apiBaseURL: fmt.Sprintf("https://api.%s", site),
		appBaseURL: fmt.Sprintf("https://app.%s", site),
		httpClient: networking.NewHTTPClient(),
	}
}

// NewClientWithBaseURLs creates a client with explicit endpoint base URLs
// and HTTP client. This is primarily used for testing with mock servers.
func NewClientWithBaseURLs(site, apiBaseURL, appBaseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = networking.NewHTTPClient()
	}
	return &Client{
		site:       site,
		apiBaseURL: apiBaseURL,
		appBaseURL: appBaseURL,
		httpClient: httpClient,
	}
}

// validateEndpoint requires HTTPS for every identity-provider endpoint,
// with a localhost exemption for tests and local development.
func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return errors.NewConfigError(fmt.Sprintf("invalid endpoint URL %q", endpoint), err)
	}
	if u.Scheme != "https" && !networking.IsLocalhost(u.Host) {
		return errors.NewConfigError(fmt.Sprintf("endpoint must use HTTPS: %s", endpoint), nil)
	}
	return nil
}

// Register performs Dynamic Client Registration (RFC 7591).
//
// All candidate redirect URIs are registered in one record so a later login
// that binds a different callback port still matches the registration.
func (c *Client) Register(ctx context.Context, redirectURIs []string) (*ClientCredentials, error) {
	if len(redirectURIs) == 0 {
		return nil, errors.NewConfigError("at least one redirect URI is required", nil)
	}

	endpoint := c.apiBaseURL + "/api/v2/oauth2/register"
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	body, err := json.Marshal(registrationRequest{
		ClientName:   ClientName,
		RedirectURIs: redirectURIs,
		GrantTypes:   []string{GrantAuthorizationCode, GrantRefreshToken},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to create registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProtocolError("failed to send registration request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProtocolError("failed to read registration response", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, protocolError("client registration", resp.StatusCode, respBody)
	}

	var regResp registrationResponse
	if err := json.Unmarshal(respBody, &regResp); err != nil {
		return nil, errors.NewProtocolError("failed to parse registration response", err)
	}
	if regResp.ClientID == "" {
		return nil, errors.NewProtocolError("registration response missing client_id", nil)
	}

	logger.Debugf("registered OAuth client %s for site %s", regResp.ClientID, c.site)

	return &ClientCredentials{
		ClientID:     regResp.ClientID,
		ClientName:   regResp.ClientName,
		RedirectURIs: regResp.RedirectURIs,
		RegisteredAt: time.Now().Unix(),
		Site:         c.site,
	}, nil
}

// BuildAuthorizationURL assembles the authorize-endpoint URL. Pure, no I/O.
func (c *Client) BuildAuthorizationURL(
	clientID string,
	redirectURI string,
	state string,
	challenge *PKCEChallenge,
	scopes []string,
) string {
	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {clientID},
		"redirect_uri":          {redirectURI},
		"state":                 {state},
		"scope":                 {strings.Join(scopes, " ")},
		"code_challenge":        {challenge.Challenge},
		"code_challenge_method": {challenge.Method},
	}

	return fmt.Sprintf("%s/oauth2/v1/authorize?%s", c.appBaseURL, params.Encode())
}

// ExchangeCode exchanges an authorization code for tokens. The verifier is
// validated by the provider against the challenge stored at authorize time.
func (c *Client) ExchangeCode(
	ctx context.Context,
	code, redirectURI, codeVerifier string,
	creds *ClientCredentials,
) (*TokenSet, error) {
	data := url.Values{}
	data.Set("grant_type", GrantAuthorizationCode)
	data.Set("client_id", creds.ClientID)
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	data.Set("code_verifier", codeVerifier)

	return c.requestTokens(ctx, data, creds)
}

// RefreshToken obtains a fresh token set using a refresh token. The
// redirect URI and code verifier do not apply to this grant and are never
// sent, not even as empty fields.
func (c *Client) RefreshToken(
	ctx context.Context,
	refreshToken string,
	creds *ClientCredentials,
) (*TokenSet, error) {
	data := url.Values{}
	data.Set("grant_type", GrantRefreshToken)
	data.Set("client_id", creds.ClientID)
	data.Set("refresh_token", refreshToken)

	return c.requestTokens(ctx, data, creds)
}

// requestTokens is the single request/parse path shared by both grants.
func (c *Client) requestTokens(ctx context.Context, data url.Values, creds *ClientCredentials) (*TokenSet, error) {
	endpoint := c.apiBaseURL + "/oauth2/v1/token"
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProtocolError("failed to send token request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProtocolError("failed to read token response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, protocolError("token request", resp.StatusCode, respBody)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return nil, errors.NewProtocolError("failed to parse token response", err)
	}

	tokenType := tokenResp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return &TokenSet{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenType,
		ExpiresIn:    tokenResp.ExpiresIn,
		IssuedAt:     time.Now().Unix(),
		Scope:        tokenResp.Scope,
		ClientID:     creds.ClientID,
	}, nil
}

// protocolError builds the error for a non-2xx identity-provider response,
// preferring the decoded OAuth error body over raw bytes.
func protocolError(operation string, status int, body []byte) error {
	var oauthErr OAuthError
	if err := json.Unmarshal(body, &oauthErr); err == nil && oauthErr.Code != "" {
		return errors.NewProtocolError(fmt.Sprintf("%s failed: %s", operation, oauthErr.String()), nil)
	}

	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return errors.NewProtocolError(fmt.Sprintf("%s failed with status %d: %s", operation, status, string(body)), nil)
}
