// Package callback implements the transient local HTTP server that receives
// the authorization-server redirect during login.
package callback

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	perrors "github.com/perchlabs/perch/pkg/errors"
	"github.com/perchlabs/perch/pkg/logger"
)

// CandidatePorts are the callback ports this client may bind. The list is a
// stable contract shared with the redirect URIs registered via DCR; changing
// it invalidates existing registrations.
var CandidatePorts = []int{8000, 8080, 8888, 9000}

// Path is the redirect path the authorization server calls back on.
const Path = "/oauth/callback"

// Result holds the query parameters captured from the one honored
// callback request.
type Result struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Server is a single-use local HTTP listener for one login attempt.
type Server struct {
	port     int
	listener net.Listener
	server   *http.Server
	resultCh chan Result

	consumed atomic.Bool
	stopOnce sync.Once
	stopErr  error
}

// NewServer binds the first available candidate port on 127.0.0.1.
// The listener from the successful bind is kept and served directly, so the
// port cannot be stolen between detection and serving.
func NewServer() (*Server, error) {
	return NewServerWithPorts(CandidatePorts)
}

// NewServerWithPorts is NewServer with an explicit port list, used by tests.
func NewServerWithPorts(ports []int) (*Server, error) {
	var lastErr error
	for _, p := range ports {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", p))
		if err == nil {
			return &Server{
				port:     p,
				listener: l,
				resultCh: make(chan Result, 1),
			}, nil
		}
		lastErr = err
	}

	return nil, perrors.NewConfigError(
		fmt.Sprintf("failed to bind any callback port (tried %v)", ports), lastErr)
}

// Port returns the bound port.
func (s *Server) Port() int {
	return s.port
}

// RedirectURI returns the redirect URI for the bound port.
func (s *Server) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", s.port, Path)
}

// AllRedirectURIs returns the redirect URIs for every candidate port. DCR
// registers the full set so any later run can bind whichever port is free.
func AllRedirectURIs() []string {
	uris := make([]string, 0, len(CandidatePorts))
	for _, p := range CandidatePorts {
		uris = append(uris, fmt.Sprintf("http://127.0.0.1:%d%s", p, Path))
	}
	return uris
}

// Start begins accepting connections in a background goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleCallback)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warnf("callback server error: %v", err)
		}
	}()
}

// WaitForCallback blocks until the callback arrives, the timeout expires, or
// ctx is cancelled. The listener is torn down on every exit path so no accept
// loop outlives a failed login attempt.
func (s *Server) WaitForCallback(ctx context.Context, timeout time.Duration) (*Result, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-s.resultCh:
		return &result, nil
	case <-timer.C:
		_ = s.Stop()
		return nil, perrors.NewTimeoutError(
			fmt.Sprintf("OAuth callback timed out after %s", timeout), nil)
	case <-ctx.Done():
		_ = s.Stop()
		return nil, fmt.Errorf("OAuth callback wait cancelled: %w", ctx.Err())
	}
}

// Stop shuts the server down. It is idempotent and safe to call from cleanup
// paths whether or not a callback was received.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		if s.server == nil {
			// Never started; just release the port.
			s.stopErr = s.listener.Close()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.stopErr = s.server.Shutdown(ctx)
	})
	return s.stopErr
}

// handleCallback honors exactly one request. The mux already rejects paths
// other than Path with a 404, which tolerates favicon and prefetch noise.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	// A second request must not replay or race the first.
	if !s.consumed.CompareAndSwap(false, true) {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query()
	result := Result{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	// Respond to the browser before handing the result back, so the user
	// always sees a definitive page even if the CLI exits right after.
	if result.Error != "" {
		writeErrorPage(w, result.Error, result.ErrorDescription)
	} else {
		writeSuccessPage(w)
	}

	s.resultCh <- result

	// Single-use by design: stop accepting as soon as the result is
	// delivered. Shutdown waits for this handler, so it runs elsewhere.
	go func() {
		if err := s.Stop(); err != nil {
			logger.Warnf("failed to stop callback server: %v", err)
		}
	}()
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'; script-src 'none'; object-src 'none';")
}

func writeSuccessPage(w http.ResponseWriter) {
	setSecurityHeaders(w)
	htmlContent := `<!DOCTYPE html>
<html>
<head>
    <title>Authentication Successful</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; text-align: center; }
        .container { max-width: 600px; margin: 0 auto; }
        .message { padding: 20px; border-radius: 5px; margin: 20px 0; }
        .success { background-color: #e7f6e7; border: 1px solid #b3e6b3; color: #006600; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authentication Successful</h1>
        <div class="message success">
            <p>You have successfully authenticated with Perch. You can close this window and return to the terminal.</p>
        </div>
    </div>
</body>
</html>`
	if _, err := w.Write([]byte(htmlContent)); err != nil {
		logger.Warnf("failed to write success page: %v", err)
	}
}

func writeErrorPage(w http.ResponseWriter, errorCode, errorDescription string) {
	setSecurityHeaders(w)
	w.WriteHeader(http.StatusBadRequest)

	detail := html.EscapeString(errorCode)
	if errorDescription != "" {
		detail = fmt.Sprintf("%s: %s", html.EscapeString(errorCode), html.EscapeString(errorDescription))
	}

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Authentication Failed</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; text-align: center; }
        .container { max-width: 600px; margin: 0 auto; }
        .message { padding: 20px; border-radius: 5px; margin: 20px 0; }
        .error { background-color: #ffe7e7; border: 1px solid #ffb3b3; color: #cc0000; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authentication Failed</h1>
        <div class="message error">
            <p>%s</p>
            <p>You can close this window and try again.</p>
        </div>
    </div>
</body>
</html>`, detail)
	if _, err := w.Write([]byte(htmlContent)); err != nil {
		logger.Warnf("failed to write error page: %v", err)
	}
}
