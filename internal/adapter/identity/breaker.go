package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// BreakerSettings configures the identity circuit breaker.
type BreakerSettings struct {
	// FailureThreshold is the number of consecutive unavailability failures that opens the breaker.
	FailureThreshold uint
	// Delay is how long the breaker stays open before letting a trial call through.
	Delay time.Duration
}

// DefaultBreakerSettings opens after 5 consecutive failures and retries after 30s.
var DefaultBreakerSettings = BreakerSettings{FailureThreshold: 5, Delay: 30 * time.Second}

// StateObserver receives breaker state changes as 0 (closed), 1 (half-open) or 2 (open).
type StateObserver interface {
	SetBreakerState(v float64)
}

var _ domain.IdentityService = (*Breaker)(nil)

// Breaker stops calling an unreachable identity service for a while. Only
// unavailability counts as a failure; refusals such as a wrong password pass through
// and count as successful round trips. While open, calls fail fast with
// domain.ErrIdentityUnavailable.
type Breaker struct {
	next domain.IdentityService
	cb   circuitbreaker.CircuitBreaker[any]
}

func NewBreaker(next domain.IdentityService, settings BreakerSettings, observer StateObserver) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = DefaultBreakerSettings.FailureThreshold
	}
	if settings.Delay <= 0 {
		settings.Delay = DefaultBreakerSettings.Delay
	}

	cb := circuitbreaker.NewBuilder[any]().
		WithFailureThreshold(settings.FailureThreshold).
		WithDelay(settings.Delay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "identity",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			if observer != nil {
				observer.SetBreakerState(stateToFloat(e.NewState))
			}
		}).
		Build()

	return &Breaker{next: next, cb: cb}
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// State returns the current breaker state.
func (b *Breaker) State() circuitbreaker.State {
	return b.cb.State()
}

// Ready reports an error while the breaker is open. Used as a readiness check.
func (b *Breaker) Ready(_ context.Context) error {
	if b.cb.State() == circuitbreaker.OpenState {
		return fmt.Errorf("%w: circuit breaker open", domain.ErrIdentityUnavailable)
	}
	return nil
}

func (b *Breaker) CurrentPrincipal(ctx context.Context) (*domain.Principal, error) {
	var p *domain.Principal
	err := b.guard(func() (err error) {
		p, err = b.next.CurrentPrincipal(ctx)
		return err
	})
	return p, err
}

func (b *Breaker) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	var p *domain.Principal
	err := b.guard(func() (err error) {
		p, err = b.next.SignIn(ctx, email, password)
		return err
	})
	return p, err
}

func (b *Breaker) SendPasswordReset(ctx context.Context, email string) error {
	return b.guard(func() error {
		return b.next.SendPasswordReset(ctx, email)
	})
}

// SignOut is not guarded: dropping local credentials must work while the service is down.
func (b *Breaker) SignOut(ctx context.Context) error {
	return b.next.SignOut(ctx)
}

func (b *Breaker) guard(call func() error) error {
	if !b.cb.TryAcquirePermit() {
		return fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, circuitbreaker.ErrOpen)
	}

	err := call()
	switch {
	case err == nil:
		b.cb.RecordSuccess()
	case errors.Is(err, domain.ErrIdentityUnavailable), errors.Is(err, context.DeadlineExceeded):
		b.cb.RecordError(err)
	default:
		b.cb.RecordSuccess()
	}
	return err
}
