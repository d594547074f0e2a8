package memory

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Store persists history lines in the history_entries table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a history store over the shared database.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("component", "memory")}
}

// Append saves one line. Failures are logged; the in-memory history stays
// authoritative.
func (s *Store) Append(sessionID string, e Entry) {
	_, err := s.db.Exec(`
		INSERT INTO history_entries (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		sessionID, string(e.Role), e.Content, e.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		s.logger.Warn("failed to persist history entry", "session", sessionID, "err", err)
	}
}

// LoadRecent returns the last n lines across all sessions, oldest first.
func (s *Store) LoadRecent(n int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at FROM history_entries
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			role      string
			createdAt string
		)
		if err := rows.Scan(&role, &e.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Role = Role(role)
		e.Timestamp, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes every persisted line.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM history_entries"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
