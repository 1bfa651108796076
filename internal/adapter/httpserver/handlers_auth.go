package httpserver

import (
	"fmt"
	"net/http"

	"github.com/adala-wanyande/afyaone/internal/app"
	apperrors "github.com/adala-wanyande/afyaone/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

type credentialsRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type resetRequest struct {
	Email string `json:"email" form:"email"`
}

func (s *Server) registerAuthRoutes(csrfMiddleware echo.MiddlewareFunc) {
	signIn := newRateLimiter(signInBudget(s.config))
	reset := newRateLimiter(resetBudget(s.config))

	g := s.echo.Group("/auth", csrfMiddleware)
	g.POST("/login", s.handleLogin, signIn)
	g.POST("/password-reset", s.handlePasswordReset, reset)
	g.POST("/logout", s.handleLogout, signIn)
}

// handleLogin submits the credentials once. Fields are passed on as typed.
func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(c, apperrors.ValidationError("malformed request"))
	}

	principal, err := s.shell.Submit(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return s.authFailed(c, err, req.Email)
	}

	if wantsJSON(c) {
		resp := map[string]string{
			"principal_id": principal.ID,
			"mode":         s.shell.Snapshot().Mode.String(),
		}
		if err := c.JSON(http.StatusOK, resp); err != nil {
			return fmt.Errorf("failed to write login response: %w", err)
		}
		return nil
	}
	return redirectHome(c)
}

func (s *Server) handlePasswordReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(c, apperrors.ValidationError("malformed request"))
	}

	if err := s.shell.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return s.authFailed(c, err, req.Email)
	}

	if wantsJSON(c) {
		if err := c.JSON(http.StatusOK, map[string]string{"message": app.PasswordResetSentMessage}); err != nil {
			return fmt.Errorf("failed to write reset response: %w", err)
		}
		return nil
	}
	return s.renderMode(c, http.StatusOK, pageData{Email: req.Email, Notice: app.PasswordResetSentMessage})
}

func (s *Server) handleLogout(c echo.Context) error {
	launch, err := s.shell.Logout(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}

	if wantsJSON(c) {
		if err := c.JSON(http.StatusOK, map[string]string{"launch_id": launch.ID}); err != nil {
			return fmt.Errorf("failed to write logout response: %w", err)
		}
		return nil
	}
	return redirectHome(c)
}

// authFailed answers JSON clients with the error body and re-renders the page for
// form posts, showing the message as the identity service worded it.
func (s *Server) authFailed(c echo.Context, err error, email string) error {
	if wantsJSON(c) {
		return HandleError(c, err)
	}

	authErr := apperrors.AsAuthError(err)
	logError(c, authErr)
	return s.renderMode(c, authErr.HTTPStatus(), pageData{Email: email, Error: authErr.Message})
}

func redirectHome(c echo.Context) error {
	if err := c.Redirect(http.StatusSeeOther, "/"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}
