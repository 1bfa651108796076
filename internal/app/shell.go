package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/adala-wanyande/afyaone/internal/platform/correlation"
	apperrors "github.com/adala-wanyande/afyaone/internal/platform/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ShellConfig holds the launch timing policy.
type ShellConfig struct {
	MinDisplayDuration time.Duration
	ResolveTimeout     time.Duration
}

// Launch is one traversal from Loading to a stable view. Logging out or restarting
// creates a new Launch rather than rewinding this one.
type Launch struct {
	ID        string
	StartedAt time.Time
	Resolver  *SessionResolver
	Router    *ViewRouter
	Login     *LoginController

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Session is the router's session once it has settled and the resolver's value before.
func (l *Launch) Session() domain.SessionState {
	select {
	case <-l.Router.Settled():
		return l.Router.Session()
	default:
		return l.Resolver.State()
	}
}

// Done is closed when the launch's background work has finished.
func (l *Launch) Done() <-chan struct{} {
	return l.done
}

// Snapshot is a point-in-time view of the current launch for presentation hosts.
type Snapshot struct {
	LaunchID  string
	StartedAt time.Time
	Mode      domain.UIMode
	Session   domain.SessionState
	Elapsed   time.Duration
}

// ErrShellStopped is returned for launches requested after Stop.
var ErrShellStopped = errors.New("shell stopped")

// Shell owns the current launch of the application.
type Shell struct {
	identity domain.IdentityService
	clock    clockwork.Clock
	cfg      ShellConfig
	recorder Recorder

	base     context.Context
	stop     context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu      sync.RWMutex
	current *Launch
	stopped bool
}

func NewShell(identity domain.IdentityService, clock clockwork.Clock, cfg ShellConfig, recorder Recorder) *Shell {
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}
	base, stop := context.WithCancel(context.Background())
	return &Shell{
		identity: identity,
		clock:    clock,
		cfg:      cfg,
		recorder: orNop(recorder),
		base:     base,
		stop:     stop,
	}
}

// Start begins a new launch in Loading, cancelling any previous one. It returns
// nil once the shell has been stopped.
func (s *Shell) Start() *Launch {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(correlation.WithLaunch(s.base, id))

	l := &Launch{
		ID:        id,
		StartedAt: s.clock.Now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	l.Resolver = NewSessionResolver(s.identity, s.clock, s.cfg.ResolveTimeout, s.recorder)
	l.Router = NewViewRouter(s.clock, s.cfg.MinDisplayDuration, func(change domain.ModeChange) {
		s.recorder.ModeChanged(change.From, change.To)
		slog.InfoContext(ctx, "View changed", "from", change.From.String(), "to", change.To.String())
	})
	l.Login = NewLoginController(s.identity, s.clock, l.Router, s.recorder)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		cancel()
		return nil
	}
	prev := s.current
	s.current = l
	s.wg.Add(1)
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	go s.run(l)

	slog.InfoContext(ctx, "Launch started", "min_display", s.cfg.MinDisplayDuration)
	return l
}

func (s *Shell) run(l *Launch) {
	defer s.wg.Done()
	defer close(l.done)

	s.wg.Go(func() { l.Resolver.Resolve(l.ctx) })
	if err := l.Router.Run(l.ctx, l.Resolver); err != nil && !errors.Is(err, context.Canceled) {
		slog.WarnContext(l.ctx, "View router stopped", "error", err)
	}
}

// Current returns the active launch, or nil before Start.
func (s *Shell) Current() *Launch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Snapshot describes the active launch. It must not be called before Start.
func (s *Shell) Snapshot() Snapshot {
	l := s.Current()
	return Snapshot{
		LaunchID:  l.ID,
		StartedAt: l.StartedAt,
		Mode:      l.Router.Mode(),
		Session:   l.Session(),
		Elapsed:   l.Router.Elapsed(),
	}
}

// Submit signs in through the active launch's login controller.
func (s *Shell) Submit(ctx context.Context, email, password string) (*domain.Principal, error) {
	l := s.Current()
	return l.Login.Submit(correlation.WithLaunch(ctx, l.ID), email, password)
}

// RequestPasswordReset goes through the active launch's login controller.
func (s *Shell) RequestPasswordReset(ctx context.Context, email string) error {
	l := s.Current()
	return l.Login.RequestPasswordReset(correlation.WithLaunch(ctx, l.ID), email)
}

// Logout signs out at the identity service and starts a new launch, so the view
// re-enters Loading with a fresh session traversal.
func (s *Shell) Logout(ctx context.Context) (*Launch, error) {
	if s.isStopped() {
		return nil, apperrors.UnavailableError("Application is shutting down", ErrShellStopped)
	}
	if err := s.identity.SignOut(ctx); err != nil {
		return nil, classifyIdentityError(err)
	}
	l := s.Start()
	if l == nil {
		return nil, apperrors.UnavailableError("Application is shutting down", ErrShellStopped)
	}
	return l, nil
}

func (s *Shell) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}

// Stop cancels the active launch and waits for background work to finish.
// Later calls to Start return nil.
func (s *Shell) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		s.stop()
		s.wg.Wait()
	})
}
