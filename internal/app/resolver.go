package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultResolveTimeout = 5 * time.Second

	resolveKey = "current-principal"
)

// SessionResolver determines, once per launch, whether an authenticated principal exists.
// Its state starts Unknown and is set exactly once to a terminal value.
type SessionResolver struct {
	identity domain.IdentityService
	clock    clockwork.Clock
	timeout  time.Duration
	recorder Recorder

	flight singleflight.Group

	mu    sync.RWMutex
	state domain.SessionState
	done  chan struct{}
}

func NewSessionResolver(identity domain.IdentityService, clock clockwork.Clock, timeout time.Duration, recorder Recorder) *SessionResolver {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &SessionResolver{
		identity: identity,
		clock:    clock,
		timeout:  timeout,
		recorder: orNop(recorder),
		state:    domain.Unknown(),
		done:     make(chan struct{}),
	}
}

// State returns the current value without blocking.
func (r *SessionResolver) State() domain.SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Done is closed once the state is terminal.
func (r *SessionResolver) Done() <-chan struct{} {
	return r.done
}

// Resolve asks the identity service for the current principal. Concurrent callers share
// a single query. The query runs to completion (bounded by the resolver timeout) even if
// ctx is cancelled; a cancelled caller gets the state as it stands, possibly Unknown.
func (r *SessionResolver) Resolve(ctx context.Context) domain.SessionState {
	if s := r.State(); s.IsTerminal() {
		return s
	}

	queryCtx := context.WithoutCancel(ctx)
	ch := r.flight.DoChan(resolveKey, func() (any, error) {
		return r.query(queryCtx), nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.SessionState)
	case <-ctx.Done():
		return r.State()
	}
}

type lookupResult struct {
	principal *domain.Principal
	err       error
}

func (r *SessionResolver) query(ctx context.Context) domain.SessionState {
	if s := r.State(); s.IsTerminal() {
		return s
	}

	lookupCtx, cancel := clockwork.WithTimeout(ctx, r.clock, r.timeout)
	defer cancel()

	start := r.clock.Now()
	results := make(chan lookupResult, 1)
	go func() {
		p, err := r.identity.CurrentPrincipal(lookupCtx)
		results <- lookupResult{principal: p, err: err}
	}()

	var res lookupResult
	select {
	case res = <-results:
	case <-lookupCtx.Done():
		res.err = lookupCtx.Err()
	}
	took := r.clock.Since(start)

	next := r.interpret(ctx, res)
	r.recorder.SessionResolved(outcome(next), took)
	slog.InfoContext(ctx, "Session resolved", "state", next.String(), "took", took)
	return r.settle(next)
}

func (r *SessionResolver) interpret(ctx context.Context, res lookupResult) domain.SessionState {
	switch {
	case res.err == nil && res.principal != nil && res.principal.ID != "":
		return domain.Authenticated(res.principal.ID)
	case res.err == nil:
		return domain.Unauthenticated()
	case isUnavailable(res.err):
		slog.WarnContext(ctx, "Identity service unreachable during session check, requiring login", "error", res.err)
		return domain.Offline()
	default:
		slog.InfoContext(ctx, "Identity service refused current session", "error", res.err)
		return domain.Unauthenticated()
	}
}

func (r *SessionResolver) settle(next domain.SessionState) domain.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.IsTerminal() {
		return r.state
	}
	r.state = next
	close(r.done)
	return next
}

func outcome(s domain.SessionState) string {
	if s.Offline {
		return "offline"
	}
	return s.Kind.String()
}
