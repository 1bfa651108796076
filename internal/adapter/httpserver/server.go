package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/adala-wanyande/afyaone/internal/adapter/metrics"
	"github.com/adala-wanyande/afyaone/internal/app"
	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/adala-wanyande/afyaone/internal/platform/config"
	"github.com/adala-wanyande/afyaone/web"
	"github.com/labstack/echo/v4"
)

type shellService interface {
	Snapshot() app.Snapshot
	Submit(ctx context.Context, email, password string) (*domain.Principal, error)
	RequestPasswordReset(ctx context.Context, email string) error
	Logout(ctx context.Context) (*app.Launch, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	shell shellService

	templates *template.Template

	healthChecks   []HealthCheck
	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
	startTime      time.Time
}

func NewServer(cfg *config.Config, shell shellService, healthChecks []HealthCheck, metricsHandler http.Handler, httpMetrics *metrics.HTTPMetrics) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		shell:          shell,
		templates:      templates,
		healthChecks:   healthChecks,
		metricsHandler: metricsHandler,
		httpMetrics:    httpMetrics,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	addr := s.listenAddr()
	slog.Info("Starting server", "addr", addr, "local_only", s.config.LoopbackOnly())
	if err := s.echo.Start(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) listenAddr() string {
	return net.JoinHostPort(s.config.BindAddr, s.config.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(status, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
