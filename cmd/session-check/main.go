// Command session-check runs a single launch against the configured identity service
// and prints the view it settles on. With --email and --password it then signs in;
// with --reset it requests a password reset for --email instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adala-wanyande/afyaone/internal/adapter/identity"
	"github.com/adala-wanyande/afyaone/internal/app"
	"github.com/adala-wanyande/afyaone/internal/platform/config"
	apperrors "github.com/adala-wanyande/afyaone/internal/platform/errors"
	"github.com/adala-wanyande/afyaone/internal/platform/logging"
	"github.com/jonboulle/clockwork"
)

func main() {
	var (
		email    = flag.String("email", "", "Email to sign in with or to send a reset link to")
		password = flag.String("password", "", "Password to sign in with")
		reset    = flag.Bool("reset", false, "Request a password reset for --email instead of signing in")
		verbose  = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := cfg.LogLevel
	if *verbose {
		logLevel = "debug"
	}
	slog.SetDefault(logging.New(os.Stderr, logLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *email, *password, *reset); err != nil {
		authErr := apperrors.AsAuthError(err)
		fmt.Fprintf(os.Stderr, "%s: %s\n", authErr.Type, authErr.Message)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, email, password string, reset bool) error {
	clock := clockwork.NewRealClock()

	identitySvc, err := identity.NewFromConfig(cfg, clock, nil)
	if err != nil {
		return apperrors.InternalError("failed to create identity service", err)
	}

	shell := app.NewShell(identitySvc, clock, app.ShellConfig{
		MinDisplayDuration: cfg.SplashMinDuration,
		ResolveTimeout:     cfg.SessionResolveTimeout,
	}, nil)
	defer shell.Stop()

	launch := shell.Start()
	select {
	case <-launch.Router.Settled():
	case <-ctx.Done():
		return apperrors.UnavailableError("interrupted while loading", ctx.Err())
	}
	printSnapshot(shell.Snapshot())

	switch {
	case reset:
		if err := shell.RequestPasswordReset(ctx, email); err != nil {
			return err
		}
		fmt.Println(app.PasswordResetSentMessage)
	case email != "" || password != "":
		if _, err := shell.Submit(ctx, email, password); err != nil {
			return err
		}
		printSnapshot(shell.Snapshot())
	}
	return nil
}

func printSnapshot(snap app.Snapshot) {
	fmt.Printf("launch=%s mode=%s session=%s elapsed=%s\n",
		snap.LaunchID, snap.Mode, snap.Session, snap.Elapsed.Round(time.Millisecond))
}
