package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdentity struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubIdentity) result() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubIdentity) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubIdentity) CurrentPrincipal(context.Context) (*domain.Principal, error) {
	if err := s.result(); err != nil {
		return nil, err
	}
	return &domain.Principal{ID: "u1"}, nil
}

func (s *stubIdentity) SignIn(context.Context, string, string) (*domain.Principal, error) {
	if err := s.result(); err != nil {
		return nil, err
	}
	return &domain.Principal{ID: "u1"}, nil
}

func (s *stubIdentity) SendPasswordReset(context.Context, string) error { return s.result() }

func (s *stubIdentity) SignOut(context.Context) error { return s.result() }

type recordingObserver struct {
	mu     sync.Mutex
	states []float64
}

func (o *recordingObserver) SetBreakerState(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, v)
}

func TestBreaker_OpensOnUnavailability(t *testing.T) {
	next := &stubIdentity{err: fmt.Errorf("dial: %w", domain.ErrIdentityUnavailable)}
	obs := &recordingObserver{}
	b := NewBreaker(next, BreakerSettings{FailureThreshold: 2, Delay: time.Hour}, obs)
	ctx := context.Background()

	for range 2 {
		_, err := b.CurrentPrincipal(ctx)
		assert.ErrorIs(t, err, domain.ErrIdentityUnavailable)
	}
	require.Equal(t, circuitbreaker.OpenState, b.State())
	assert.Error(t, b.Ready(ctx))

	_, err := b.SignIn(ctx, "a@b.com", "pw")
	assert.ErrorIs(t, err, domain.ErrIdentityUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 2, next.callCount(), "open breaker must not reach the service")

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []float64{2}, obs.states)
}

func TestBreaker_RefusalsDoNotOpen(t *testing.T) {
	next := &stubIdentity{err: domain.NewServiceError(400, "INVALID_LOGIN_CREDENTIALS")}
	b := NewBreaker(next, BreakerSettings{FailureThreshold: 2, Delay: time.Hour}, nil)

	for range 5 {
		_, err := b.SignIn(context.Background(), "a@b.com", "wrong")
		assert.Equal(t, "INVALID_LOGIN_CREDENTIALS", err.Error())
	}

	assert.Equal(t, circuitbreaker.ClosedState, b.State())
	assert.NoError(t, b.Ready(context.Background()))
	assert.Equal(t, 5, next.callCount())
}

func TestBreaker_SignOutBypassesOpenBreaker(t *testing.T) {
	next := &stubIdentity{err: domain.ErrIdentityUnavailable}
	b := NewBreaker(next, BreakerSettings{FailureThreshold: 1, Delay: time.Hour}, nil)

	_ = b.SendPasswordReset(context.Background(), "a@b.com")
	require.Equal(t, circuitbreaker.OpenState, b.State())

	next.mu.Lock()
	next.err = nil
	next.mu.Unlock()

	assert.NoError(t, b.SignOut(context.Background()))
	assert.Equal(t, 2, next.callCount())
}

func TestBreaker_PassesResultsThrough(t *testing.T) {
	b := NewBreaker(&stubIdentity{}, DefaultBreakerSettings, nil)

	p, err := b.CurrentPrincipal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)

	assert.NoError(t, b.SendPasswordReset(context.Background(), "a@b.com"))
}
