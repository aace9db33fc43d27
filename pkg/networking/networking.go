// Package networking provides the shared HTTP client construction and host
// helpers used by the identity-provider and API clients.
package networking

import (
	"net/http"
	"strings"
	"time"
)

// HTTPTimeout is the timeout for outgoing HTTP requests. Login and refresh
// are human-paced, rare operations, so requests fail fast instead of being
// retried.
const HTTPTimeout = 30 * time.Second

// NewHTTPClient returns the HTTP client used for identity-provider requests.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: HTTPTimeout,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
		},
	}
}

// IsLocalhost reports whether host (optionally host:port) refers to the
// local machine. Matching is exact and case sensitive.
func IsLocalhost(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "[::1]" ||
		strings.HasPrefix(host, "localhost:") ||
		strings.HasPrefix(host, "127.0.0.1:") ||
		strings.HasPrefix(host, "[::1]:")
}
