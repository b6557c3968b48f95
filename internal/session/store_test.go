package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return s
}

func TestOpenMissingFileIsEmptySession(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, Session{}, s.Snapshot())
	assert.False(t, s.Snapshot().HasToken())
}

func TestSetTokenDropsStaleIdentity(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("tok-1"))
	require.NoError(t, s.SetUser("user-1"))
	require.NoError(t, s.SetToken("tok-2"))

	snap := s.Snapshot()
	assert.Equal(t, "tok-2", snap.Token)
	assert.Empty(t, snap.UserID, "identity verified under tok-1 must not survive tok-2")
}

func TestLogoutClearsBoth(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("tok"))
	require.NoError(t, s.SetUser("user"))
	require.NoError(t, s.Logout())

	assert.Equal(t, Session{}, s.Snapshot())
}

func TestClearTokenClearsIdentity(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("tok"))
	require.NoError(t, s.SetUser("user"))
	require.NoError(t, s.ClearToken())

	assert.Equal(t, Session{}, s.Snapshot())
}

// UserID must be non-empty only if a SetUser happened after the most
// recent SetToken with no Logout/ClearToken intervening.
func TestUserIdentityInvariantAcrossSequences(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetToken("tok-a"))
	assert.Empty(t, s.Snapshot().UserID, "no verify yet")

	require.NoError(t, s.SetUser("user-a"))
	assert.Equal(t, "user-a", s.Snapshot().UserID)

	require.NoError(t, s.Logout())
	assert.Empty(t, s.Snapshot().UserID, "logout clears identity")

	require.NoError(t, s.SetToken("tok-b"))
	assert.Empty(t, s.Snapshot().UserID, "new token does not resurrect identity")
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SetToken("tok"))
	require.NoError(t, s1.SetUser("user"))

	s2, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "tok", UserID: "user"}, s2.Snapshot())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCorruptFileTreatedAsLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, Session{}, s.Snapshot())
}

func TestSubscribeReceivesLatestSnapshot(t *testing.T) {
	s := newTestStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.SetToken("tok-1"))
	require.NoError(t, s.SetToken("tok-2"))

	// The buffer holds only the newest state.
	snap := <-ch
	assert.Equal(t, "tok-2", snap.Token)
}

func TestSubscribeCancelCloses(t *testing.T) {
	s := newTestStore(t)
	ch, cancel := s.Subscribe()
	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)

	// Mutations after cancel must not panic.
	require.NoError(t, s.SetToken("tok"))
}
