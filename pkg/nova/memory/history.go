// Package memory holds the bounded conversation history replayed into the
// reasoning oracle on every turn.
package memory

import (
	"strings"
	"sync"
	"time"
)

// DefaultMaxEntries is the history bound used when none is configured.
const DefaultMaxEntries = 100

// Role identifies who produced a history line.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Entry is one line of conversation.
type Entry struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// History is a bounded, append-only log. When full, the oldest entries are
// dropped. It is safe for concurrent use.
type History struct {
	max     int
	entries []Entry

	store     *Store
	sessionID string

	mu sync.RWMutex
}

// NewHistory creates a history holding at most max entries.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &History{max: max}
}

// Persist mirrors every subsequent Append into store under sessionID.
func (h *History) Persist(store *Store, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store = store
	h.sessionID = sessionID
}

// Restore seeds the history with previously saved entries, keeping the bound.
// Restored entries are not written back to the store.
func (h *History) Restore(entries []Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entries...)
	h.evict()
}

// Append adds a line and evicts the oldest lines beyond the bound.
func (h *History) Append(role Role, content string) {
	e := Entry{Role: role, Content: content, Timestamp: time.Now()}

	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.evict()
	store, sessionID := h.store, h.sessionID
	h.mu.Unlock()

	if store != nil {
		store.Append(sessionID, e)
	}
}

func (h *History) evict() {
	if over := len(h.entries) - h.max; over > 0 {
		kept := make([]Entry, h.max)
		copy(kept, h.entries[over:])
		h.entries = kept
	}
}

// Entries returns a copy of the current lines, oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of stored lines.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Max returns the bound.
func (h *History) Max() int { return h.max }

// Clear drops every line. The persisted copy is left untouched.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Render formats the history as "User: ..." / "<assistant>: ..." lines.
func (h *History) Render(assistant string) string {
	if assistant == "" {
		assistant = "Assistant"
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	var b strings.Builder
	for i, e := range h.entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch e.Role {
		case RoleUser:
			b.WriteString("User: ")
		case RoleAssistant:
			b.WriteString(assistant + ": ")
		default:
			b.WriteString("Tool: ")
		}
		b.WriteString(e.Content)
	}
	return b.String()
}
