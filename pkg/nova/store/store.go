// Package store opens the central SQLite database. A single nova.db file
// holds the action audit trail and persisted conversation history.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.
)

// DefaultPath is used when no path is configured.
const DefaultPath = "./data/nova.db"

// schema is the DDL executed on every startup (idempotent via IF NOT EXISTS).
const schema = `
-- Dispatched action audit trail.
CREATE TABLE IF NOT EXISTS audit_log (
    id          TEXT PRIMARY KEY,
    session_id  TEXT DEFAULT '',
    domain      TEXT NOT NULL,
    action      TEXT NOT NULL,
    target      TEXT DEFAULT '',
    succeeded   INTEGER NOT NULL,
    kind        TEXT DEFAULT '',
    message     TEXT DEFAULT '',
    duration_ms INTEGER DEFAULT 0,
    created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);

-- Conversation history (append-only, one row per line).
CREATE TABLE IF NOT EXISTS history_entries (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_entries_sid ON history_entries(session_id);
`

// OpenDatabase opens (or creates) nova.db at path with WAL enabled and the
// schema applied.
func OpenDatabase(path string) (*sql.DB, error) {
	if path == "" {
		path = DefaultPath
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
