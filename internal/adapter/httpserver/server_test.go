package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adala-wanyande/afyaone/internal/adapter/identity"
	"github.com/adala-wanyande/afyaone/internal/app"
	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/adala-wanyande/afyaone/internal/platform/config"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	localAddr  = "127.0.0.1:51000"
	remoteAddr = "10.9.9.9:51000"
)

func loopbackConfig() *config.Config {
	cfg := testConfig()
	cfg.BindAddr = "127.0.0.1"
	return cfg
}

// newDeviceServer wires a real shell over the in-memory identity service and
// waits for its first launch to reach the login prompt.
func newDeviceServer(t *testing.T, cfg *config.Config) (*Server, *app.Shell) {
	t.Helper()
	svc := identity.NewMemoryService(bcrypt.MinCost)
	_, err := svc.AddUser("alice@example.com", "wonderland")
	require.NoError(t, err)

	shell := app.NewShell(svc, clockwork.NewRealClock(), app.ShellConfig{ResolveTimeout: time.Second}, nil)
	t.Cleanup(shell.Stop)
	l := shell.Start()
	select {
	case <-l.Router.Settled():
	case <-time.After(2 * time.Second):
		t.Fatal("launch did not settle")
	}

	srv, err := NewServer(cfg, shell, nil, nil, nil)
	require.NoError(t, err)
	return srv, shell
}

func serveFrom(srv *Server, addr, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = addr
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestServer_ListenAddr(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{"127.0.0.1", "127.0.0.1:8080"},
		{"::1", "[::1]:8080"},
		{"localhost", "localhost:8080"},
		{"0.0.0.0", "0.0.0.0:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.bind, func(t *testing.T) {
			cfg := testConfig()
			cfg.BindAddr = tt.bind
			srv := newTestServer(t, &mockShell{}, withConfig(cfg))
			assert.Equal(t, tt.want, srv.listenAddr())
		})
	}
}

func TestServer_LoopbackHostRefusesOtherClients(t *testing.T) {
	srv, shell := newDeviceServer(t, loopbackConfig())

	login := serveFrom(srv, localAddr, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"wonderland"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)
	launchID := shell.Snapshot().LaunchID

	session := serveFrom(srv, remoteAddr, http.MethodGet, "/api/session", "", nil)
	assert.Equal(t, http.StatusForbidden, session.Code)
	assert.NotContains(t, session.Body.String(), "principal_id")

	logout := serveFrom(srv, remoteAddr, http.MethodPost, "/auth/logout", `{}`, nil)
	assert.Equal(t, http.StatusForbidden, logout.Code)

	index := serveFrom(srv, remoteAddr, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusForbidden, index.Code)

	snap := shell.Snapshot()
	assert.Equal(t, launchID, snap.LaunchID, "remote client must not start a new launch")
	assert.Equal(t, domain.ModeAppShell, snap.Mode)
	assert.Equal(t, domain.SessionAuthenticated, snap.Session.Kind)
}

func TestServer_LoopbackHostIgnoresForwardedLoopback(t *testing.T) {
	srv, _ := newDeviceServer(t, loopbackConfig())

	rec := serveFrom(srv, remoteAddr, http.MethodGet, "/api/session", "", map[string]string{
		echo.HeaderXForwardedFor: "127.0.0.1",
		echo.HeaderXRealIP:       "127.0.0.1",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_LoopbackHostServesLocalClient(t *testing.T) {
	srv, _ := newDeviceServer(t, loopbackConfig())

	for _, addr := range []string{localAddr, "[::1]:51000"} {
		rec := serveFrom(srv, addr, http.MethodGet, "/api/session", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, addr)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "login", resp["mode"])
	}
}

func TestServer_TrustedProxyForwardsLocalClientOnly(t *testing.T) {
	cfg := loopbackConfig()
	cfg.TrustProxyHeaders = true
	srv, _ := newDeviceServer(t, cfg)

	remote := serveFrom(srv, localAddr, http.MethodGet, "/api/session", "", map[string]string{
		echo.HeaderXForwardedFor: "10.9.9.9",
	})
	local := serveFrom(srv, localAddr, http.MethodGet, "/api/session", "", map[string]string{
		echo.HeaderXForwardedFor: "127.0.0.1",
	})

	assert.Equal(t, http.StatusForbidden, remote.Code)
	assert.Equal(t, http.StatusOK, local.Code)
}
