package directory

import (
	"context"
	"sync"

	"github.com/teamdeck/teamdeck/internal/errors"
	"github.com/teamdeck/teamdeck/internal/log"
	"github.com/teamdeck/teamdeck/internal/session"
)

// Service is the transport surface the controller drives. *Client
// satisfies it; tests substitute fakes.
type Service interface {
	Fetch(ctx context.Context, token string) (Snapshot, error)
	PatchRole(ctx context.Context, token, userID string, role Role) error
}

// RowEdit is the ephemeral working state for one proposed role change
// that has not been committed. Each row tracks its own busy flag and
// failure independently; an in-flight or failed edit for one user
// never touches another's.
type RowEdit struct {
	UserID        string
	Proposed      Role
	Busy          bool
	FailureReason string
}

// Controller owns the cached directory snapshot and drives the role
// edit workflow. The snapshot is replaced atomically on refresh;
// readers see either the old or the new one, never a half-update.
//
// Concurrent CommitEdit calls for the same user are not serialized:
// the server applies them in arrival order and the last writer wins.
// That mirrors the behavior of the service this client talks to.
type Controller struct {
	mu       sync.Mutex
	sessions *session.Store
	svc      Service
	logger   *log.Logger

	snap    Snapshot
	hasSnap bool

	// fetchSeq orders refreshes by issuance; appliedSeq records the
	// newest completion applied. Out-of-order completions are dropped
	// so a stale in-flight response never overwrites a newer one.
	fetchSeq   uint64
	appliedSeq uint64

	edits  map[string]*RowEdit
	closed bool
}

// NewController creates a directory controller. The session store is
// injected; the controller reads tokens from it and never mutates it.
func NewController(sessions *session.Store, svc Service, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Controller{
		sessions: sessions,
		svc:      svc,
		logger:   logger,
		edits:    make(map[string]*RowEdit),
	}
}

// Refresh fetches a fresh snapshot and replaces the cache. Without a
// token it is a no-op. On failure the previous snapshot stays in
// place; stale-but-available beats empty.
func (c *Controller) Refresh(ctx context.Context) error {
	token := c.sessions.Snapshot().Token
	if token == "" {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.fetchSeq++
	seq := c.fetchSeq
	c.mu.Unlock()

	snap, err := c.svc.Fetch(ctx, token)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if err != nil {
		c.logger.WithError(err).Warn("directory refresh failed, keeping cached snapshot")
		return err
	}
	if seq <= c.appliedSeq {
		// A later-started refresh already completed; this result is stale.
		c.logger.Debug("dropping out-of-order refresh result", "seq", seq, "applied", c.appliedSeq)
		return nil
	}
	c.appliedSeq = seq
	c.snap = snap
	c.hasSnap = true
	return nil
}

// Snapshot returns the cached snapshot and whether one has been
// fetched yet.
func (c *Controller) Snapshot() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, c.hasSnap
}

// BeginEdit opens a pending role edit for the user, seeded with the
// user's current role from the cached snapshot.
func (c *Controller) BeginEdit(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, ok := c.snap.Lookup(userID)
	if !ok {
		return errors.NewUserNotFoundError(userID)
	}
	c.edits[userID] = &RowEdit{
		UserID:   userID,
		Proposed: user.NormalizedRole(),
	}
	return nil
}

// ProposeRole updates the pending edit's proposed role. No network
// effect. The role must come from the closed set; nothing outside it
// may reach the patch endpoint.
func (c *Controller) ProposeRole(userID string, role Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := ParseRole(role.String()); !ok {
		return errors.New(errors.ErrCodeRoleInvalid, "unknown role "+role.String())
	}

	edit, ok := c.edits[userID]
	if !ok {
		return errors.New(errors.ErrCodeNoEditInFlight, "no pending edit for user "+userID)
	}
	edit.Proposed = role
	return nil
}

// CommitEdit sends the pending role change to the server. On success
// the edit is discarded and a refresh reconciles the cache. On failure
// the proposed value is retained, busy is cleared, and the failure is
// recorded for that row only.
func (c *Controller) CommitEdit(ctx context.Context, userID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	edit, ok := c.edits[userID]
	if !ok {
		c.mu.Unlock()
		return errors.New(errors.ErrCodeNoEditInFlight, "no pending edit for user "+userID)
	}
	token := c.sessions.Snapshot().Token
	if token == "" {
		c.mu.Unlock()
		return errors.New(errors.ErrCodeNoSession, "no session token held")
	}
	edit.Busy = true
	edit.FailureReason = ""
	proposed := edit.Proposed
	c.mu.Unlock()

	err := c.svc.PatchRole(ctx, token, userID, proposed)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	current, live := c.edits[userID]
	if err != nil {
		if live {
			current.Busy = false
			current.FailureReason = err.Error()
		}
		c.mu.Unlock()
		return err
	}
	if live {
		delete(c.edits, userID)
	}
	c.mu.Unlock()

	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		// The patch landed; a failed reconcile only leaves the cache
		// stale until the next refresh.
		c.logger.WithError(refreshErr).Warn("post-commit refresh failed")
	}
	return nil
}

// CancelEdit discards the pending edit without a network call.
func (c *Controller) CancelEdit(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.edits, userID)
}

// Edit returns a copy of the pending edit for the user, if any.
func (c *Controller) Edit(userID string) (RowEdit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	edit, ok := c.edits[userID]
	if !ok {
		return RowEdit{}, false
	}
	return *edit, true
}

// Edits returns a copy of every pending edit keyed by user id.
func (c *Controller) Edits() map[string]RowEdit {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]RowEdit, len(c.edits))
	for id, edit := range c.edits {
		out[id] = *edit
	}
	return out
}

// Close marks the controller unmounted. Results of calls still in
// flight are suppressed; no state changes after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
