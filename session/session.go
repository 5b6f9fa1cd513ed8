package session

import (
	"fmt"
	"strings"
	"time"
)

// Role names recorded in a session's history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single exchange entry in a conversation's history, newest last.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	TS      time.Time `json:"ts"`
}

// PendingPush holds a staged commit/push description awaiting confirmation.
type PendingPush struct {
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session is the persisted per-conversation state.
type Session struct {
	History     []Turn       `json:"history"`
	PendingPush *PendingPush `json:"pendingPush"`
}

// NoContextSentinel is rendered when a session has no history yet.
const NoContextSentinel = "No prior context."

// RenderContext renders the last n turns as a numbered transcript for
// re-injection into the next instruction payload. Each task invocation is
// stateless; this rendering is the only continuity mechanism.
func (s *Session) RenderContext(n int) string {
	if s == nil || len(s.History) == 0 || n <= 0 {
		return NoContextSentinel
	}

	turns := s.History
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	lines := make([]string, 0, len(turns))
	for i, turn := range turns {
		lines = append(lines, fmt.Sprintf("[%d] %s (%s): %s",
			i+1,
			strings.ToUpper(turn.Role),
			turn.TS.Format(time.RFC3339),
			turn.Content))
	}
	return strings.Join(lines, "\n\n")
}
