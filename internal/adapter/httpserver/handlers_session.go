package httpserver

import (
	"fmt"
	"math"
	"net/http"

	"github.com/adala-wanyande/afyaone/internal/app"
	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/labstack/echo/v4"
)

// splashRefreshSeconds is how often the splash page polls for the settled view.
const splashRefreshSeconds = 1

type pageData struct {
	LaunchID       string
	PrincipalID    string
	Offline        bool
	Email          string
	Error          string
	Notice         string
	CSRFToken      string
	RefreshSeconds int
}

type sessionResponse struct {
	LaunchID    string `json:"launch_id"`
	Mode        string `json:"mode"`
	Session     string `json:"session"`
	PrincipalID string `json:"principal_id,omitempty"`
	Offline     bool   `json:"offline"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

func newSessionResponse(snap app.Snapshot) sessionResponse {
	return sessionResponse{
		LaunchID:    snap.LaunchID,
		Mode:        snap.Mode.String(),
		Session:     snap.Session.Kind.String(),
		PrincipalID: snap.Session.PrincipalID,
		Offline:     snap.Session.Offline,
		ElapsedMS:   snap.Elapsed.Milliseconds(),
	}
}

// handleIndex renders the page for the current view: splash while loading, the login
// form, or the signed-in shell.
func (s *Server) handleIndex(c echo.Context) error {
	return s.renderMode(c, http.StatusOK, pageData{})
}

func (s *Server) renderMode(c echo.Context, status int, data pageData) error {
	snap := s.shell.Snapshot()
	data.LaunchID = snap.LaunchID
	data.PrincipalID = snap.Session.PrincipalID
	data.Offline = snap.Session.Offline
	data.CSRFToken = csrfToken(c)

	switch snap.Mode {
	case domain.ModeLoading:
		data.RefreshSeconds = splashRefreshSeconds
		if remaining := s.config.SplashMinDuration - snap.Elapsed; remaining > 0 {
			data.RefreshSeconds = max(splashRefreshSeconds, int(math.Ceil(remaining.Seconds())))
		}
		return s.renderTemplate(c, status, "splash.html", data)
	case domain.ModeLoginPrompt:
		return s.renderTemplate(c, status, "login.html", data)
	case domain.ModeAppShell:
		return s.renderTemplate(c, status, "shell.html", data)
	default:
		return fmt.Errorf("unknown view mode %q", snap.Mode)
	}
}

func (s *Server) handleSession(c echo.Context) error {
	if err := c.JSON(http.StatusOK, newSessionResponse(s.shell.Snapshot())); err != nil {
		return fmt.Errorf("failed to write session response: %w", err)
	}
	return nil
}

func csrfToken(c echo.Context) string {
	token, _ := c.Get("csrf").(string)
	return token
}
