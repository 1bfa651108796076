package app

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultMinDisplayDuration is the floor on how long the loading view is shown.
const DefaultMinDisplayDuration = 2 * time.Second

var allowedTransitions = map[domain.UIMode][]domain.UIMode{
	domain.ModeLoading:     {domain.ModeLoginPrompt, domain.ModeAppShell},
	domain.ModeLoginPrompt: {domain.ModeAppShell},
}

// DeriveMode maps a session state and the time the loading view has been displayed to
// a UI mode. The floor is a minimum: an Unknown state keeps Loading past it.
func DeriveMode(state domain.SessionState, elapsed, floor time.Duration) domain.UIMode {
	if elapsed < floor {
		return domain.ModeLoading
	}
	switch state.Kind {
	case domain.SessionAuthenticated:
		return domain.ModeAppShell
	case domain.SessionUnauthenticated:
		return domain.ModeLoginPrompt
	default:
		return domain.ModeLoading
	}
}

// SessionSource is the resolver as seen by the router.
type SessionSource interface {
	Done() <-chan struct{}
	State() domain.SessionState
}

// ViewRouter holds the display mode for one launch. It starts in Loading and leaves it
// only after the minimum display duration has elapsed and the session is resolved.
// LoginPrompt and AppShell are stable; re-entering Loading takes a new launch.
type ViewRouter struct {
	clock     clockwork.Clock
	floor     time.Duration
	startedAt time.Time
	onChange  func(domain.ModeChange)

	mu      sync.RWMutex
	mode    domain.UIMode
	session domain.SessionState
	settled chan struct{}
}

// NewViewRouter starts the display clock. onChange may be nil; it is called outside
// the router's lock after every transition.
func NewViewRouter(clock clockwork.Clock, floor time.Duration, onChange func(domain.ModeChange)) *ViewRouter {
	if floor < 0 {
		floor = 0
	}
	return &ViewRouter{
		clock:     clock,
		floor:     floor,
		startedAt: clock.Now(),
		onChange:  onChange,
		mode:      domain.ModeLoading,
		session:   domain.Unknown(),
		settled:   make(chan struct{}),
	}
}

func (v *ViewRouter) Mode() domain.UIMode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

// Session is the router's view of the session: Unknown while loading, then the resolved
// state, then Authenticated after a successful sign-in.
func (v *ViewRouter) Session() domain.SessionState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.session
}

// Settled is closed when the router leaves Loading.
func (v *ViewRouter) Settled() <-chan struct{} {
	return v.settled
}

// Elapsed is how long the loading view has been on screen.
func (v *ViewRouter) Elapsed() time.Duration {
	return v.clock.Since(v.startedAt)
}

// Run waits out the display floor and the session resolution, then leaves Loading.
// It returns ctx.Err() if cancelled first.
func (v *ViewRouter) Run(ctx context.Context, source SessionSource) error {
	if remaining := v.floor - v.Elapsed(); remaining > 0 {
		select {
		case <-v.clock.After(remaining):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case <-source.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	state := source.State()
	return v.transition(DeriveMode(state, v.Elapsed(), v.floor), state)
}

// SignedIn moves LoginPrompt to AppShell after a successful sign-in.
func (v *ViewRouter) SignedIn(p domain.Principal) error {
	return v.transition(domain.ModeAppShell, domain.Authenticated(p.ID))
}

func (v *ViewRouter) transition(to domain.UIMode, session domain.SessionState) error {
	v.mu.Lock()
	from := v.mode
	if from == to {
		v.mu.Unlock()
		return nil
	}
	if !slices.Contains(allowedTransitions[from], to) {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	v.mode = to
	v.session = session
	if from == domain.ModeLoading {
		close(v.settled)
	}
	v.mu.Unlock()

	if v.onChange != nil {
		v.onChange(domain.ModeChange{From: from, To: to})
	}
	return nil
}
