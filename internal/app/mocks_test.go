package app

import (
	"context"
	"sync"
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
)

// --- Mock implementations ---

type mockIdentity struct {
	currentFn func(ctx context.Context) (*domain.Principal, error)
	signInFn  func(ctx context.Context, email, password string) (*domain.Principal, error)
	resetFn   func(ctx context.Context, email string) error
	signOutFn func(ctx context.Context) error

	mu           sync.Mutex
	currentCalls int
	signInCalls  int
	resetCalls   int
	signOutCalls int
	resetEmails  []string
}

func (m *mockIdentity) CurrentPrincipal(ctx context.Context) (*domain.Principal, error) {
	m.mu.Lock()
	m.currentCalls++
	m.mu.Unlock()
	if m.currentFn != nil {
		return m.currentFn(ctx)
	}
	return nil, nil
}

func (m *mockIdentity) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	m.mu.Lock()
	m.signInCalls++
	m.mu.Unlock()
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return &domain.Principal{ID: "uid-" + email, Email: email}, nil
}

func (m *mockIdentity) SendPasswordReset(ctx context.Context, email string) error {
	m.mu.Lock()
	m.resetCalls++
	m.resetEmails = append(m.resetEmails, email)
	m.mu.Unlock()
	if m.resetFn != nil {
		return m.resetFn(ctx, email)
	}
	return nil
}

func (m *mockIdentity) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.signOutCalls++
	m.mu.Unlock()
	if m.signOutFn != nil {
		return m.signOutFn(ctx)
	}
	return nil
}

func (m *mockIdentity) calls() (current, signIn, reset, signOut int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentCalls, m.signInCalls, m.resetCalls, m.signOutCalls
}

type recordedChange struct {
	from, to domain.UIMode
}

type mockRecorder struct {
	mu          sync.Mutex
	resolutions []string
	signIns     []string
	resets      []string
	changes     []recordedChange
}

func (m *mockRecorder) SessionResolved(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions = append(m.resolutions, outcome)
}

func (m *mockRecorder) SignInFinished(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signIns = append(m.signIns, result)
}

func (m *mockRecorder) PasswordResetFinished(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, result)
}

func (m *mockRecorder) ModeChanged(from, to domain.UIMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, recordedChange{from: from, to: to})
}

func (m *mockRecorder) snapshot() (resolutions, signIns, resets []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolutions...), append([]string(nil), m.signIns...), append([]string(nil), m.resets...)
}

// staticSource is a SessionSource that is already resolved, or resolves on demand.
type staticSource struct {
	mu    sync.Mutex
	state domain.SessionState
	done  chan struct{}
}

func newPendingSource() *staticSource {
	return &staticSource{state: domain.Unknown(), done: make(chan struct{})}
}

func newResolvedSource(state domain.SessionState) *staticSource {
	s := newPendingSource()
	s.resolve(state)
	return s
}

func (s *staticSource) resolve(state domain.SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	close(s.done)
}

func (s *staticSource) Done() <-chan struct{} { return s.done }

func (s *staticSource) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
