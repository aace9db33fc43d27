package callback

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/perchlabs/perch/pkg/errors"
)

// freePort grabs an ephemeral port for a test server so tests do not fight
// over the production candidate ports.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func startTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServerWithPorts([]int{freePort(t)})
	require.NoError(t, err)
	server.Start()
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func TestServerReceivesCallback(t *testing.T) {
	t.Parallel()

	server := startTestServer(t)

	resp, err := http.Get(server.RedirectURI() + "?code=auth-code&state=state-abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Authentication Successful")

	result, err := server.WaitForCallback(t.Context(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth-code", result.Code)
	assert.Equal(t, "state-abc", result.State)
	assert.Empty(t, result.Error)
}

func TestServerErrorCallback(t *testing.T) {
	t.Parallel()

	server := startTestServer(t)

	resp, err := http.Get(server.RedirectURI() + "?error=access_denied&error_description=user+declined")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Authentication Failed")
	assert.Contains(t, string(page), "access_denied")

	result, err := server.WaitForCallback(t.Context(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "access_denied", result.Error)
	assert.Equal(t, "user declined", result.ErrorDescription)
}

func TestServerIgnoresOtherPaths(t *testing.T) {
	t.Parallel()

	server := startTestServer(t)

	// Browser noise on other paths must not consume the one honored request.
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/favicon.ico", server.Port()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(server.RedirectURI() + "?code=auth-code&state=state-abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result, err := server.WaitForCallback(t.Context(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth-code", result.Code)
}

func TestWaitForCallbackTimeout(t *testing.T) {
	t.Parallel()

	server := startTestServer(t)

	_, err := server.WaitForCallback(t.Context(), 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, perrors.IsTimeout(err))
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	server, err := NewServerWithPorts([]int{freePort(t)})
	require.NoError(t, err)

	assert.NoError(t, server.Stop())
	assert.NoError(t, server.Stop())
}

func TestNewServerWithPortsAllBusy(t *testing.T) {
	t.Parallel()

	port := freePort(t)
	blocker, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer blocker.Close()

	_, err = NewServerWithPorts([]int{port})
	require.Error(t, err)
	assert.True(t, perrors.IsConfig(err))
}

func TestAllRedirectURIs(t *testing.T) {
	t.Parallel()

	uris := AllRedirectURIs()
	require.Len(t, uris, len(CandidatePorts))
	for i, p := range CandidatePorts {
		assert.Equal(t, fmt.Sprintf("http://127.0.0.1:%d/oauth/callback", p), uris[i])
	}
}
