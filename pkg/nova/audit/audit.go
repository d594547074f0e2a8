// Package audit records every dispatched action in the audit_log table of
// nova.db and prunes old rows on a cron schedule.
package audit

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const maxMessageLen = 500

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Entry is one audited action.
type Entry struct {
	ID        string
	SessionID string
	Domain    string
	Action    string
	Target    string
	Succeeded bool
	Kind      string
	Message   string
	Duration  time.Duration
	CreatedAt time.Time
}

func (e Entry) String() string {
	status := "OK"
	if !e.Succeeded {
		status = "FAILED"
		if e.Kind != "" {
			status += "(" + e.Kind + ")"
		}
	}
	return fmt.Sprintf("[%s] %s.%s target=%q %s %dms %s",
		e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Domain, e.Action, e.Target,
		status, e.Duration.Milliseconds(), e.Message)
}

// Logger writes audit entries to SQLite.
type Logger struct {
	db        *sql.DB
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
	now       func() time.Time
}

// NewLogger creates an audit logger. Entries older than retention are
// removed by Prune.
func NewLogger(db *sql.DB, retention time.Duration, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Logger{
		db:        db,
		retention: retention,
		logger:    logger.With("component", "audit"),
		now:       time.Now,
	}
}

// Record inserts e. Missing IDs and timestamps are filled in. Failures are
// logged and never propagated: auditing must not break a dispatched action.
func (l *Logger) Record(e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}
	e.Message = truncateMessage(e.Message)

	succeeded := 0
	if e.Succeeded {
		succeeded = 1
	}

	_, err := l.db.Exec(`
		INSERT INTO audit_log (id, session_id, domain, action, target, succeeded, kind, message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Domain, e.Action, e.Target, succeeded, e.Kind, e.Message,
		e.Duration.Milliseconds(), e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		l.logger.Warn("failed to write audit log", "domain", e.Domain, "action", e.Action, "err", err)
	}
}

// Recent returns the last n entries, newest first.
func (l *Logger) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := l.db.Query(`
		SELECT id, session_id, domain, action, target, succeeded, kind, message, duration_ms, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			succeeded  int
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Domain, &e.Action, &e.Target,
			&succeeded, &e.Kind, &e.Message, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.Succeeded = succeeded != 0
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse audit timestamp %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (l *Logger) Count() (int, error) {
	var count int
	if err := l.db.QueryRow("SELECT COUNT(*) FROM audit_log").Scan(&count); err != nil {
		return 0, fmt.Errorf("count audit log: %w", err)
	}
	return count, nil
}

// truncateMessage caps m at maxMessageLen bytes without splitting a rune.
func truncateMessage(m string) string {
	if len(m) <= maxMessageLen {
		return m
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(m[cut]) {
		cut--
	}
	return m[:cut] + "...[truncated]"
}

// Prune deletes entries older than the retention window.
func (l *Logger) Prune() (int64, error) {
	cutoff := l.now().Add(-l.retention).UTC().Format(timeLayout)
	result, err := l.db.Exec("DELETE FROM audit_log WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit log: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		l.logger.Info("audit log pruned", "removed", n)
	}
	return n, nil
}

// StartPruning prunes once now and then on spec (standard 5-field cron or a
// descriptor such as @daily).
func (l *Logger) StartPruning(spec string) error {
	if spec == "" {
		spec = "@daily"
	}
	if _, err := l.Prune(); err != nil {
		l.logger.Warn("audit log prune failed", "err", err)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(spec, func() {
		if _, err := l.Prune(); err != nil {
			l.logger.Warn("audit log prune failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	c.Start()
	l.cron = c
	l.logger.Debug("audit pruning scheduled", "schedule", spec)
	return nil
}

// Close stops the pruning schedule. The shared *sql.DB is closed by the
// owner.
func (l *Logger) Close() {
	if l.cron != nil {
		<-l.cron.Stop().Done()
		l.cron = nil
	}
}
