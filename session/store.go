package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wbaxter3/codex-telegram-bridge/errors"
	"github.com/wbaxter3/codex-telegram-bridge/logging"
	"github.com/wbaxter3/codex-telegram-bridge/output"
)

// Default history limits, overridable through Limits.
const (
	DefaultMaxHistory = 20
	DefaultMaxContent = 4000
)

// Limits bounds what a single session may accumulate.
type Limits struct {
	// MaxHistory is the maximum number of turns kept per session; the oldest
	// turns are evicted first.
	MaxHistory int

	// MaxContent is the maximum content length of a single turn; longer
	// content is truncated on insert.
	MaxContent int
}

func (l Limits) withDefaults() Limits {
	if l.MaxHistory <= 0 {
		l.MaxHistory = DefaultMaxHistory
	}
	if l.MaxContent <= 0 {
		l.MaxContent = DefaultMaxContent
	}
	return l
}

// Store keeps every conversation's session and persists them to a single
// JSON file, read-modify-written as a whole. The single-flight gate
// serializes all mutations, so the store itself does no file locking.
type Store struct {
	path     string
	limits   Limits
	sessions map[string]*Session
	logger   *logrus.Entry
}

// NewStore creates a Store persisting to path. Call Load before first use.
func NewStore(path string, limits Limits) *Store {
	return &Store{
		path:     path,
		limits:   limits.withDefaults(),
		sessions: make(map[string]*Session),
		logger:   logging.NewLogger("session-store"),
	}
}

// Load reads the persisted store. A missing file yields an empty store. A
// corrupt file is backed up under a timestamped name and replaced with an
// empty store; startup never aborts over a corrupt session file.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.sessions = make(map[string]*Session)
			return nil
		}
		return fmt.Errorf("read session store: %w", err)
	}

	var sessions map[string]*Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		corrupt := errors.StoreCorrupt(s.path, err)
		backup := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().Format("20060102-150405"))
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			s.logger.WithError(renameErr).Warn("Failed to back up corrupt session store")
		} else {
			s.logger.WithError(corrupt).WithField("backup", backup).Warn("Session store was corrupt, starting empty")
		}
		s.sessions = make(map[string]*Session)
		return nil
	}

	if sessions == nil {
		sessions = make(map[string]*Session)
	}
	for _, sess := range sessions {
		if sess.History == nil {
			sess.History = []Turn{}
		}
	}
	s.sessions = sessions
	return nil
}

// Save writes the full store, creating the containing directory if needed.
func (s *Store) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session store directory: %w", err)
	}

	data, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	return nil
}

// Get returns the session for the conversation id, creating an empty one
// (not yet persisted) if none exists.
func (s *Store) Get(id string) *Session {
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := &Session{History: []Turn{}}
	s.sessions[id] = sess
	return sess
}

// AddHistory appends a turn with the current timestamp, truncating content
// to the content limit and evicting the oldest turns beyond the history
// limit.
func (s *Store) AddHistory(id, role, content string) {
	content = output.Truncate(content, s.limits.MaxContent)

	sess := s.Get(id)
	sess.History = append(sess.History, Turn{
		Role:    role,
		Content: content,
		TS:      time.Now().UTC(),
	})
	if len(sess.History) > s.limits.MaxHistory {
		sess.History = sess.History[len(sess.History)-s.limits.MaxHistory:]
	}
}

// BuildContext renders the last n turns of the conversation for the next
// instruction payload.
func (s *Store) BuildContext(id string, n int) string {
	sess, ok := s.sessions[id]
	if !ok {
		return NoContextSentinel
	}
	return sess.RenderContext(n)
}

// SetPendingPush stages a push description on the conversation.
func (s *Store) SetPendingPush(id, description string) {
	sess := s.Get(id)
	sess.PendingPush = &PendingPush{
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

// PendingPush returns the staged push for the conversation, if any.
func (s *Store) PendingPush(id string) *PendingPush {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	return sess.PendingPush
}

// ClearPendingPush clears any staged push on the conversation.
func (s *Store) ClearPendingPush(id string) {
	if sess, ok := s.sessions[id]; ok {
		sess.PendingPush = nil
	}
}

// Clear resets a single conversation's session.
func (s *Store) Clear(id string) {
	s.sessions[id] = &Session{History: []Turn{}}
}

// ClearAll drops every conversation's session. Used when the active
// repository context switches, since history is tied to a repository.
func (s *Store) ClearAll() {
	s.sessions = make(map[string]*Session)
}

// Len returns the number of tracked conversations.
func (s *Store) Len() int {
	return len(s.sessions)
}
