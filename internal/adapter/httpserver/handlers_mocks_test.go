package httpserver

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adala-wanyande/afyaone/internal/app"
	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/adala-wanyande/afyaone/internal/platform/config"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockShell struct {
	snapshotFn func() app.Snapshot
	submitFn   func(ctx context.Context, email, password string) (*domain.Principal, error)
	resetFn    func(ctx context.Context, email string) error
	logoutFn   func(ctx context.Context) (*app.Launch, error)

	mu          sync.Mutex
	submitCalls int
	resetCalls  int
}

func (m *mockShell) Snapshot() app.Snapshot {
	if m.snapshotFn != nil {
		return m.snapshotFn()
	}
	return app.Snapshot{LaunchID: "launch-1", Mode: domain.ModeLoginPrompt, Session: domain.Unauthenticated()}
}

func (m *mockShell) Submit(ctx context.Context, email, password string) (*domain.Principal, error) {
	m.mu.Lock()
	m.submitCalls++
	m.mu.Unlock()
	if m.submitFn != nil {
		return m.submitFn(ctx, email, password)
	}
	return &domain.Principal{ID: "uid-1", Email: email}, nil
}

func (m *mockShell) RequestPasswordReset(ctx context.Context, email string) error {
	m.mu.Lock()
	m.resetCalls++
	m.mu.Unlock()
	if m.resetFn != nil {
		return m.resetFn(ctx, email)
	}
	return nil
}

func (m *mockShell) Logout(ctx context.Context) (*app.Launch, error) {
	if m.logoutFn != nil {
		return m.logoutFn(ctx)
	}
	return &app.Launch{ID: "launch-2"}, nil
}

func snapshotIn(mode domain.UIMode, session domain.SessionState, elapsed time.Duration) func() app.Snapshot {
	return func() app.Snapshot {
		return app.Snapshot{LaunchID: "launch-1", Mode: mode, Session: session, Elapsed: elapsed}
	}
}

// --- Test helpers ---

// testConfig binds all interfaces so requests from httptest's default remote
// address are served. Loopback-only behaviour is covered in server_test.go.
func testConfig() *config.Config {
	return &config.Config{
		Port:              "8080",
		BindAddr:          "0.0.0.0",
		AppEnv:            "development",
		SplashMinDuration: 2 * time.Second,
		AuthRateLimit:     100,
		AuthRateBurst:     100,
		ResetRateLimit:    100,
		ResetRateBurst:    100,
	}
}

func newTestServer(t *testing.T, shell shellService, opts ...func(*Server)) *Server {
	t.Helper()

	tmpl := template.Must(template.New("splash.html").Parse(`Splash {{.RefreshSeconds}}`))
	template.Must(tmpl.New("login.html").Parse(`Login email={{.Email}} error={{.Error}} notice={{.Notice}} offline={{.Offline}} csrf={{.CSRFToken}}`))
	template.Must(tmpl.New("shell.html").Parse(`Shell {{.PrincipalID}}`))

	srv := &Server{
		echo:      echo.New(),
		config:    testConfig(),
		shell:     shell,
		templates: tmpl,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withConfig(cfg *config.Config) func(*Server) {
	return func(s *Server) {
		s.config = cfg
	}
}

func withMetricsHandler(h http.Handler) func(*Server) {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// csrfCookie loads the index page and returns the CSRF cookie it sets.
func csrfCookie(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfTokenCookieName {
			return c
		}
	}
	t.Fatal("CSRF cookie should be set")
	return nil
}

func postForm(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	cookie := csrfCookie(t, srv)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body+"&csrf_token="+cookie.Value))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func postJSON(srv *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}
