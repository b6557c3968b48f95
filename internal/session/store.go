package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/teamdeck/teamdeck/internal/errors"
)

// Session is the pair of authentication token and resolved user
// identity held by the client. UserID is set only after a successful
// verify with the currently held token.
type Session struct {
	Token  string `json:"token,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// HasToken reports whether a token is held.
func (s Session) HasToken() bool {
	return s.Token != ""
}

// storageName is the fixed file name for the persisted session record.
const storageName = "session.json"

// Store is the single owner of the session. Every mutation is written
// through to durable storage so the session survives process restarts.
// All other components read snapshots or subscribe to changes; none
// mutate the fields directly.
type Store struct {
	mu      sync.Mutex
	path    string
	current Session
	subs    map[int]chan Session
	nextSub int
}

// DefaultPath returns the session file path under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStoreRead, "cannot resolve user config dir", err)
	}
	return filepath.Join(base, "teamdeck", storageName), nil
}

// Open rehydrates the store from the file at path. A missing file is
// the empty session, not an error.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		subs: make(map[int]chan Session),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, "failed to read session file", err)
	}

	if err := json.Unmarshal(data, &s.current); err != nil {
		// A corrupt record is treated as logged out rather than
		// wedging every command behind an unreadable file.
		s.current = Session{}
	}
	return s, nil
}

// Snapshot returns the current session. Side-effect free.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetToken stores a freshly issued token. Any previously resolved
// identity belonged to the old token and is dropped; only a successful
// verify under the new token may set it again.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Token = token
	s.current.UserID = ""
	return s.persistLocked()
}

// SetUser records the identity resolved by a successful verify.
func (s *Store) SetUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.UserID = userID
	return s.persistLocked()
}

// ClearToken clears the token. The resolved identity goes with it;
// an identity is only meaningful under the token it was verified
// against.
func (s *Store) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
	return s.persistLocked()
}

// Logout clears both token and identity atomically. This is the
// canonical fully-signed-out transition.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
	return s.persistLocked()
}

// Subscribe returns a channel that receives the session after each
// mutation, plus a cancel function. The channel holds only the latest
// snapshot; a slow reader sees the newest state, not every
// intermediate one.
func (s *Store) Subscribe() (<-chan Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Session, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// persistLocked writes the current session to disk and notifies
// subscribers. Callers must hold s.mu.
func (s *Store) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to create session dir", err)
	}

	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to encode session", err)
	}

	// Write-then-rename so a crash mid-write never leaves a torn record.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to write session file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to replace session file", err)
	}

	for _, ch := range s.subs {
		select {
		case ch <- s.current:
		default:
			// Drop the stale snapshot and replace it with the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.current:
			default:
			}
		}
	}
	return nil
}
