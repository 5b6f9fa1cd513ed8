package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, limits Limits) *Store {
	t.Helper()
	t.Setenv("BRIDGE_STATE_DIR", t.TempDir())
	store := NewStore(filepath.Join(t.TempDir(), "state", "sessions.json"), limits)
	require.NoError(t, store.Load())
	return store
}

func TestLoadMissingFileYieldsEmptyStore(t *testing.T) {
	store := newTestStore(t, Limits{})
	assert.Equal(t, 0, store.Len())
}

func TestRoundTrip(t *testing.T) {
	t.Setenv("BRIDGE_STATE_DIR", t.TempDir())
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"1": {"history": [], "pendingPush": null}}`), 0600))

	store := NewStore(path, Limits{})
	require.NoError(t, store.Load())
	require.NoError(t, store.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]*Session
	require.NoError(t, json.Unmarshal(data, &got))
	require.Contains(t, got, "1")
	assert.NotNil(t, got["1"].History)
	assert.Empty(t, got["1"].History)
	assert.Nil(t, got["1"].PendingPush)
}

func TestCorruptFileIsBackedUp(t *testing.T) {
	t.Setenv("BRIDGE_STATE_DIR", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store := NewStore(path, Limits{})
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var backups []string
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".corrupt-") {
			backups = append(backups, entry.Name())
		}
	}
	require.Len(t, backups, 1)

	backupData, err := os.ReadFile(filepath.Join(dir, backups[0]))
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backupData))
}

func TestAddHistoryEvictsOldestBeyondLimit(t *testing.T) {
	store := newTestStore(t, Limits{MaxHistory: 3})

	for i := 0; i < 10; i++ {
		store.AddHistory("chat", RoleUser, fmt.Sprintf("message %d", i))
	}

	sess := store.Get("chat")
	require.Len(t, sess.History, 3)
	assert.Equal(t, "message 7", sess.History[0].Content)
	assert.Equal(t, "message 9", sess.History[2].Content)
}

func TestAddHistoryTruncatesContent(t *testing.T) {
	store := newTestStore(t, Limits{MaxContent: 10})

	store.AddHistory("chat", RoleAssistant, strings.Repeat("x", 50))

	sess := store.Get("chat")
	require.Len(t, sess.History, 1)
	assert.Len(t, sess.History[0].Content, 10)
}

func TestAddHistoryTruncatesOnRuneBoundary(t *testing.T) {
	store := newTestStore(t, Limits{MaxContent: 11})

	store.AddHistory("chat", RoleAssistant, strings.Repeat("é", 10))

	sess := store.Get("chat")
	require.Len(t, sess.History, 1)
	assert.True(t, utf8.ValidString(sess.History[0].Content))
	assert.Equal(t, strings.Repeat("é", 5), sess.History[0].Content)
}

func TestBuildContext(t *testing.T) {
	store := newTestStore(t, Limits{})

	assert.Equal(t, NoContextSentinel, store.BuildContext("nobody", 5))

	store.AddHistory("chat", RoleUser, "first")
	store.AddHistory("chat", RoleAssistant, "second")
	store.AddHistory("chat", RoleUser, "third")

	rendered := store.BuildContext("chat", 2)
	assert.NotContains(t, rendered, "first")
	assert.Contains(t, rendered, "[1] ASSISTANT")
	assert.Contains(t, rendered, "second")
	assert.Contains(t, rendered, "[2] USER")
	assert.Contains(t, rendered, "third")
	assert.Contains(t, rendered, "\n\n")
}

func TestPendingPushLifecycle(t *testing.T) {
	store := newTestStore(t, Limits{})

	assert.Nil(t, store.PendingPush("chat"))

	store.SetPendingPush("chat", "fix the parser")
	pending := store.PendingPush("chat")
	require.NotNil(t, pending)
	assert.Equal(t, "fix the parser", pending.Description)
	assert.False(t, pending.CreatedAt.IsZero())

	store.ClearPendingPush("chat")
	assert.Nil(t, store.PendingPush("chat"))
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t, Limits{})

	store.AddHistory("a", RoleUser, "one")
	store.AddHistory("b", RoleUser, "two")
	store.SetPendingPush("a", "staged")
	require.Equal(t, 2, store.Len())

	store.ClearAll()
	assert.Equal(t, 0, store.Len())
	assert.Nil(t, store.PendingPush("a"))
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("BRIDGE_STATE_DIR", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "sessions.json")

	store := NewStore(path, Limits{})
	require.NoError(t, store.Load())
	store.AddHistory("42", RoleUser, "hello")
	store.SetPendingPush("42", "ship it")
	require.NoError(t, store.Save())

	reloaded := NewStore(path, Limits{})
	require.NoError(t, reloaded.Load())

	sess := reloaded.Get("42")
	require.Len(t, sess.History, 1)
	assert.Equal(t, "hello", sess.History[0].Content)
	require.NotNil(t, sess.PendingPush)
	assert.Equal(t, "ship it", sess.PendingPush.Description)
}
