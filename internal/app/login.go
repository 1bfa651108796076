package app

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/adala-wanyande/afyaone/internal/platform/correlation"
	apperrors "github.com/adala-wanyande/afyaone/internal/platform/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// PasswordResetSentMessage is shown after the identity service accepts a reset request.
const PasswordResetSentMessage = "Password reset email sent!"

// signInTarget is the router as seen by the login controller.
type signInTarget interface {
	Mode() domain.UIMode
	SignedIn(p domain.Principal) error
}

// LoginController checks local input constraints and delegates credential verification
// to the identity service. Each operation allows one outstanding call at a time.
type LoginController struct {
	identity domain.IdentityService
	clock    clockwork.Clock
	target   signInTarget
	recorder Recorder

	signingIn atomic.Bool
	resetting atomic.Bool
}

// NewLoginController creates a controller. target may be nil, in which case the
// controller neither checks that the login view is showing nor reports sign-ins.
func NewLoginController(identity domain.IdentityService, clock clockwork.Clock, target signInTarget, recorder Recorder) *LoginController {
	return &LoginController{
		identity: identity,
		clock:    clock,
		target:   target,
		recorder: orNop(recorder),
	}
}

// Submitting reports whether a sign-in is outstanding.
func (c *LoginController) Submitting() bool {
	return c.signingIn.Load()
}

// Submit forwards the credentials to the identity service exactly once. Empty fields
// fail locally; a second call while one is outstanding is rejected with TypeInFlight.
func (c *LoginController) Submit(ctx context.Context, email, password string) (*domain.Principal, error) {
	if email == "" {
		return nil, c.signInFailed(apperrors.ValidationError("empty email"))
	}
	if password == "" {
		return nil, c.signInFailed(apperrors.ValidationError("empty password"))
	}
	if err := c.checkLoginShowing(); err != nil {
		return nil, c.signInFailed(err)
	}
	if !c.signingIn.CompareAndSwap(false, true) {
		return nil, c.signInFailed(apperrors.InFlightError("sign-in already in progress"))
	}
	defer c.signingIn.Store(false)

	ctx, _ = correlation.Ensure(ctx)
	attempt := domain.LoginAttempt{
		ID:          uuid.New(),
		Email:       email,
		Password:    password,
		SubmittedAt: c.clock.Now(),
	}
	slog.InfoContext(ctx, "Sign-in submitted", "attempt", attempt)

	principal, err := c.identity.SignIn(ctx, attempt.Email, attempt.Password)
	if err != nil {
		authErr := classifyIdentityError(err).WithContext("attempt_id", attempt.ID.String())
		slog.WarnContext(ctx, "Sign-in failed", "attempt", attempt, "error_type", authErr.Type, "error", err)
		return nil, c.signInFailed(authErr)
	}
	if principal == nil || principal.ID == "" {
		return nil, c.signInFailed(apperrors.InternalError("identity service returned no principal", nil))
	}

	if c.target != nil {
		if err := c.target.SignedIn(*principal); err != nil {
			slog.WarnContext(ctx, "Signed in but view did not advance", "principal_id", principal.ID, "error", err)
		}
	}

	c.recorder.SignInFinished("success")
	slog.InfoContext(ctx, "Sign-in succeeded", "attempt", attempt, "principal_id", principal.ID,
		"took", c.clock.Since(attempt.SubmittedAt))
	return principal, nil
}

// RequestPasswordReset asks the identity service to send a reset email. Success means
// the request was accepted; it says nothing about whether the address is registered.
func (c *LoginController) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return c.resetFailed(apperrors.ValidationError("empty email"))
	}
	if err := c.checkLoginShowing(); err != nil {
		return c.resetFailed(err)
	}
	if !c.resetting.CompareAndSwap(false, true) {
		return c.resetFailed(apperrors.InFlightError("password reset already in progress"))
	}
	defer c.resetting.Store(false)

	ctx, _ = correlation.Ensure(ctx)
	if err := c.identity.SendPasswordReset(ctx, email); err != nil {
		authErr := classifyIdentityError(err)
		slog.WarnContext(ctx, "Password reset request failed", "email", email, "error_type", authErr.Type, "error", err)
		return c.resetFailed(authErr)
	}

	c.recorder.PasswordResetFinished("accepted")
	slog.InfoContext(ctx, "Password reset requested", "email", email)
	return nil
}

func (c *LoginController) checkLoginShowing() *apperrors.AuthError {
	if c.target == nil {
		return nil
	}
	if mode := c.target.Mode(); mode != domain.ModeLoginPrompt {
		return apperrors.ValidationError("login is not available").WithContext("mode", mode.String())
	}
	return nil
}

func (c *LoginController) signInFailed(err *apperrors.AuthError) error {
	c.recorder.SignInFinished(string(err.Type))
	return err
}

func (c *LoginController) resetFailed(err *apperrors.AuthError) error {
	c.recorder.PasswordResetFinished(string(err.Type))
	return err
}
