// Package guard decides whether protected views may render. One Guard
// instance serves one protected view: it verifies the held token
// against the identity service, admits the view only on success, and
// drives the failure path (local logout, delayed redirect).
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/teamdeck/teamdeck/internal/log"
	"github.com/teamdeck/teamdeck/internal/session"
)

// State is the guard's position in its verification lifecycle.
type State int

const (
	// StateIdle is the initial state before Start.
	StateIdle State = iota
	// StatePending means a verify call is in flight. Nothing renders.
	StatePending
	// StateVerified admits the protected view.
	StateVerified
	// StateFailed shows the failure reason until the redirect fires.
	StateFailed
	// StateLoggedOut is terminal; the surrounding view navigates away.
	StateLoggedOut
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	case StateLoggedOut:
		return "logged-out"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the guard's observable state.
type Status struct {
	State  State
	UserID string
	Reason string
}

// Admitted reports whether protected content may render. True if and
// only if the state is Verified.
func (s Status) Admitted() bool {
	return s.State == StateVerified
}

// Verifier exchanges a token for a confirmed user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token string) (string, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// DefaultRedirectDelay is how long the failure reason stays on screen
// before the redirect fires.
const DefaultRedirectDelay = 2 * time.Second

// Guard is the per-view verification state machine. It is the only
// component that performs the verify round trip and the only writer of
// the resolved identity into the session store.
//
// At most one verify call is live at a time: each attempt carries a
// sequence number and a superseded attempt's result, arriving late, is
// discarded without effect.
type Guard struct {
	mu       sync.Mutex
	sessions *session.Store
	verifier Verifier
	logger   *log.Logger

	redirectDelay time.Duration
	onChange      func(Status)
	onRedirect    func()

	state  State
	userID string
	reason string

	seq           uint64
	attemptToken  string
	cancelAttempt context.CancelFunc
	redirectTimer *time.Timer

	unsubscribe func()
	closed      bool
}

// Option configures a Guard.
type Option func(*Guard)

// WithRedirectDelay overrides the delay between failure and redirect.
func WithRedirectDelay(d time.Duration) Option {
	return func(g *Guard) { g.redirectDelay = d }
}

// WithLogger overrides the logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// WithNotify registers a hook invoked after every state change. The
// hook is called from the guard's internal locking region: it must be
// fast, non-blocking, and must not call guard methods.
func WithNotify(fn func(Status)) Option {
	return func(g *Guard) { g.onChange = fn }
}

// WithRedirect registers the hook invoked when the post-failure
// redirect fires.
func WithRedirect(fn func()) Option {
	return func(g *Guard) { g.onRedirect = fn }
}

// New creates a guard over the given session store and verifier.
func New(sessions *session.Store, verifier Verifier, opts ...Option) *Guard {
	g := &Guard{
		sessions:      sessions,
		verifier:      verifier,
		logger:        log.DefaultLogger(),
		redirectDelay: DefaultRedirectDelay,
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start begins verification of the currently held token and watches
// the session store for token changes until Close. ctx bounds every
// verify attempt issued by this guard.
func (g *Guard) Start(ctx context.Context) {
	changes, cancel := g.sessions.Subscribe()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		cancel()
		return
	}
	g.unsubscribe = cancel
	g.beginAttemptLocked(ctx, g.sessions.Snapshot().Token)
	g.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-changes:
				if !ok {
					return
				}
				g.tokenChanged(ctx, snap.Token)
			}
		}
	}()
}

// Status returns the guard's observable state.
func (g *Guard) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Status{State: g.state, UserID: g.userID, Reason: g.reason}
}

// Close cancels any in-flight verify and any scheduled redirect. No
// state changes after Close.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	if g.cancelAttempt != nil {
		g.cancelAttempt()
	}
	if g.redirectTimer != nil {
		g.redirectTimer.Stop()
	}
	if g.unsubscribe != nil {
		// Deferred to a goroutine: unsubscribe takes the store lock
		// and may be invoked from a store notification path.
		unsub := g.unsubscribe
		go unsub()
	}
}

// tokenChanged supersedes the current attempt when the held token no
// longer matches the one being verified.
func (g *Guard) tokenChanged(ctx context.Context, token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	// The failure path is terminal for this guard instance; the
	// logout it performs must not restart verification.
	if g.state == StateFailed || g.state == StateLoggedOut {
		return
	}
	if token == g.attemptToken {
		return
	}
	g.beginAttemptLocked(ctx, token)
}

// beginAttemptLocked starts a new verification attempt, superseding
// any in-flight one. Callers must hold g.mu.
func (g *Guard) beginAttemptLocked(ctx context.Context, token string) {
	g.seq++
	seq := g.seq
	g.attemptToken = token

	if g.cancelAttempt != nil {
		g.cancelAttempt()
		g.cancelAttempt = nil
	}

	if token == "" {
		g.failLocked(seq, "no authentication token found", false)
		return
	}

	g.state = StatePending
	g.reason = ""
	g.notifyLocked()

	attemptCtx, cancel := context.WithCancel(ctx)
	g.cancelAttempt = cancel

	go func() {
		userID, err := g.verifier.Verify(attemptCtx, token)
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.closed || seq != g.seq {
			// Superseded or unmounted; this result must not apply.
			return
		}
		if err != nil {
			g.logger.WithError(err).Debug("verification failed")
			g.failLocked(seq, err.Error(), true)
			return
		}
		g.state = StateVerified
		g.userID = userID
		g.reason = ""
		if storeErr := g.sessions.SetUser(userID); storeErr != nil {
			g.logger.WithError(storeErr).Warn("failed to persist verified identity")
		}
		g.notifyLocked()
	}()
}

// failLocked records the failure, clears the session when a token was
// actually rejected, and schedules the redirect. Callers must hold
// g.mu.
func (g *Guard) failLocked(seq uint64, reason string, logout bool) {
	g.state = StateFailed
	g.reason = reason
	g.userID = ""

	if logout {
		if err := g.sessions.Logout(); err != nil {
			g.logger.WithError(err).Warn("failed to clear session after rejected verify")
		}
	}
	g.notifyLocked()

	g.redirectTimer = time.AfterFunc(g.redirectDelay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.closed || seq != g.seq {
			return
		}
		g.state = StateLoggedOut
		g.notifyLocked()
		if g.onRedirect != nil {
			go g.onRedirect()
		}
	})
}

// notifyLocked invokes the change hook with the current status.
// Callers must hold g.mu. The hook runs under the lock so observers
// see transitions in order; it must return quickly and must not call
// back into the guard.
func (g *Guard) notifyLocked() {
	if g.onChange == nil {
		return
	}
	g.onChange(Status{State: g.state, UserID: g.userID, Reason: g.reason})
}
