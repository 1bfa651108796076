package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleIndex_RendersCurrentView(t *testing.T) {
	tests := []struct {
		name     string
		mode     domain.UIMode
		session  domain.SessionState
		elapsed  time.Duration
		wantBody string
	}{
		{"loading early waits out the floor", domain.ModeLoading, domain.Unknown(), 200 * time.Millisecond, "Splash 2"},
		{"loading past floor polls every second", domain.ModeLoading, domain.Unknown(), 3 * time.Second, "Splash 1"},
		{"login", domain.ModeLoginPrompt, domain.Unauthenticated(), 2 * time.Second, "Login email= error= notice= offline=false"},
		{"offline login", domain.ModeLoginPrompt, domain.Offline(), 2 * time.Second, "offline=true"},
		{"app shell", domain.ModeAppShell, domain.Authenticated("uid-7"), 2 * time.Second, "Shell uid-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockShell{snapshotFn: snapshotIn(tt.mode, tt.session, tt.elapsed)})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			srv.echo.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestHandleIndex_IncludesCSRFToken(t *testing.T) {
	srv := newTestServer(t, &mockShell{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `csrf=\S+$`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestHandleSession_JSON(t *testing.T) {
	srv := newTestServer(t, &mockShell{snapshotFn: snapshotIn(domain.ModeLoginPrompt, domain.Offline(), 2500*time.Millisecond)})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, sessionResponse{
		LaunchID:  "launch-1",
		Mode:      "login",
		Session:   "unauthenticated",
		Offline:   true,
		ElapsedMS: 2500,
	}, resp)
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, &mockShell{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
}

func TestMetricsRoute(t *testing.T) {
	srv := newTestServer(t, &mockShell{}, withMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("afyaone_up 1"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "afyaone_up 1", rec.Body.String())
}
