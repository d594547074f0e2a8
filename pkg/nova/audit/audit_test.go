package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jholhewres/nova/pkg/nova/store"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	dir, err := os.MkdirTemp("", "nova-audit-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := store.OpenDatabase(filepath.Join(dir, "nova.db"))
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewLogger(db, 30*24*time.Hour, nil)
}

func TestRecordAndRecent(t *testing.T) {
	l := newTestLogger(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	l.Record(Entry{Domain: "file", Action: "create", Target: "a.txt", Succeeded: true, Message: "Created file: a.txt", CreatedAt: base})
	l.Record(Entry{Domain: "process", Action: "open", Target: "chrome", Succeeded: false, Kind: "application_not_found", CreatedAt: base.Add(time.Minute)})

	if n, err := l.Count(); err != nil || n != 2 {
		t.Fatalf("Count = %d, %v; want 2", n, err)
	}

	entries, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Domain != "process" || entries[0].Succeeded {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[1].ID == "" || !entries[1].Succeeded || !entries[1].CreatedAt.Equal(base) {
		t.Errorf("oldest entry = %+v", entries[1])
	}
	if !strings.Contains(entries[0].String(), "FAILED(application_not_found)") {
		t.Errorf("String() = %q", entries[0].String())
	}
}

func TestRecordTruncatesMessage(t *testing.T) {
	l := newTestLogger(t)
	l.Record(Entry{Domain: "vcs", Action: "log", Succeeded: true, Message: strings.Repeat("x", 2000)})

	entries, err := l.Recent(1)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries[0].Message) > maxMessageLen+20 {
		t.Errorf("message not truncated: %d bytes", len(entries[0].Message))
	}
}

func TestRecordTruncatesOnRuneBoundary(t *testing.T) {
	l := newTestLogger(t)
	// 499 ASCII bytes put a two-byte rune across the 500-byte limit.
	l.Record(Entry{Domain: "file", Action: "read", Message: strings.Repeat("a", maxMessageLen-1) + strings.Repeat("é", 10)})

	entries, err := l.Recent(1)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Recent: %v", err)
	}
	msg := entries[0].Message
	if !utf8.ValidString(msg) {
		t.Errorf("stored message is not valid UTF-8: %q", msg[len(msg)-20:])
	}
	if !strings.HasSuffix(msg, strings.Repeat("a", 10)+"...[truncated]") {
		t.Errorf("unexpected cut: %q", msg[len(msg)-30:])
	}
}

func TestRecentRejectsBadTimestamp(t *testing.T) {
	l := newTestLogger(t)
	if _, err := l.db.Exec(`
		INSERT INTO audit_log (id, session_id, domain, action, target, succeeded, kind, message, duration_ms, created_at)
		VALUES ('x', 's', 'file', 'read', '', 1, '', '', 0, 'yesterday')`); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Recent(5); err == nil || !strings.Contains(err.Error(), "yesterday") {
		t.Errorf("Recent err = %v, want timestamp error", err)
	}
}

func TestCountReportsErrors(t *testing.T) {
	l := newTestLogger(t)
	l.db.Close()
	if _, err := l.Count(); err == nil {
		t.Error("expected error from a closed database")
	}
}

func TestPrune(t *testing.T) {
	l := newTestLogger(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Record(Entry{Domain: "web", Action: "website", Succeeded: true, CreatedAt: now.AddDate(0, 0, -45)})
	l.Record(Entry{Domain: "web", Action: "search", Succeeded: true, CreatedAt: now.AddDate(0, 0, -1)})

	n, err := l.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	remaining, err := l.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 || remaining != 1 {
		t.Errorf("removed %d, remaining %d", n, remaining)
	}
}

func TestStartPruning(t *testing.T) {
	l := newTestLogger(t)
	if err := l.StartPruning("not a schedule"); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if err := l.StartPruning("@daily"); err != nil {
		t.Fatalf("StartPruning: %v", err)
	}
	l.Close()
}
