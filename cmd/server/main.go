package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adala-wanyande/afyaone/internal/adapter/httpserver"
	"github.com/adala-wanyande/afyaone/internal/adapter/identity"
	"github.com/adala-wanyande/afyaone/internal/adapter/metrics"
	"github.com/adala-wanyande/afyaone/internal/app"
	"github.com/adala-wanyande/afyaone/internal/platform/config"
	"github.com/adala-wanyande/afyaone/internal/platform/logging"
	"github.com/adala-wanyande/afyaone/internal/platform/otel"
	"github.com/adala-wanyande/afyaone/internal/platform/version"
	"github.com/jonboulle/clockwork"
)

const serviceName = "afyaone"

func runGracefulShutdown(srv *httpserver.Server, shell *app.Shell, shutdownTracing func(context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		shell.Stop()

		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Error("Tracing shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "bind_addr", cfg.BindAddr, "port", cfg.Port, "version", version.Get().String())

	shutdownTracing, err := otel.Setup(context.Background(), serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		slog.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry(version.Get())
	authMetrics := metrics.NewAuthMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	identitySvc, err := identity.NewFromConfig(cfg, clock, authMetrics)
	if err != nil {
		slog.Error("Failed to create identity service", "error", err)
		os.Exit(1)
	}

	shell := app.NewShell(identitySvc, clock, app.ShellConfig{
		MinDisplayDuration: cfg.SplashMinDuration,
		ResolveTimeout:     cfg.SessionResolveTimeout,
	}, authMetrics)
	shell.Start()

	healthChecks := []httpserver.HealthCheck{
		{Name: "identity_breaker", Check: identitySvc.Ready},
	}

	srv, err := httpserver.NewServer(cfg, shell, healthChecks, metrics.Handler(reg), httpMetrics)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, shell, shutdownTracing)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
