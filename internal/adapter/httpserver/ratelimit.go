package httpserver

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adala-wanyande/afyaone/internal/platform/config"
	apperrors "github.com/adala-wanyande/afyaone/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// authBudget is the per-client allowance for one group of auth routes.
type authBudget struct {
	scope string
	rate  float64
	burst int
}

// signInBudget covers credential submission and logout.
func signInBudget(cfg *config.Config) authBudget {
	return authBudget{scope: "sign_in", rate: cfg.AuthRateLimit, burst: cfg.AuthRateBurst}
}

// resetBudget is kept apart from sign-in because every accepted request sends an email.
func resetBudget(cfg *config.Config) authBudget {
	return authBudget{scope: "password_reset", rate: cfg.ResetRateLimit, burst: cfg.ResetRateBurst}
}

// retryAfter is the whole number of seconds until one more request fits the budget.
func (b authBudget) retryAfter() string {
	return strconv.Itoa(int(math.Ceil(1 / b.rate)))
}

// newRateLimiter keys clients by the IP the echo instance's IPExtractor reports,
// so forwarded headers only count when the host trusts its proxy.
func newRateLimiter(b authBudget) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(b.rate),
			Burst:     b.burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			slog.WarnContext(c.Request().Context(), "Auth rate limit exceeded",
				"scope", b.scope, "client", identifier, "path", c.Path())
			c.Response().Header().Set("Retry-After", b.retryAfter())
			return c.JSON(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error:   "rate limit exceeded",
				Type:    apperrors.TypeRejected,
				Context: map[string]any{"scope": b.scope},
			})
		},
	})
}

// clientIPExtractor reads the peer address unless the host sits behind a proxy it trusts.
func clientIPExtractor(cfg *config.Config) echo.IPExtractor {
	if cfg.TrustProxyHeaders {
		return echo.ExtractIPFromXFFHeader()
	}
	return echo.ExtractIPDirect()
}

// localClientsOnly refuses every client but this device when the host is bound to
// loopback. All clients share one launch and its signed-in principal.
func (s *Server) localClientsOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.config.LoopbackOnly() || config.IsLoopbackHost(c.RealIP()) {
			return next(c)
		}
		slog.WarnContext(c.Request().Context(), "Refused non-local client", "client", c.RealIP(), "path", c.Request().URL.Path)
		return c.JSON(http.StatusForbidden, apperrors.ErrorResponse{
			Error: "this host only serves the local device",
			Type:  apperrors.TypeRejected,
		})
	}
}
