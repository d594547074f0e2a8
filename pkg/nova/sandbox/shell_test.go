package sandbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jholhewres/nova/pkg/nova/outcome"
)

// stubRunner records requests and returns canned results.
type stubRunner struct {
	mu       sync.Mutex
	requests []*ExecRequest
	result   *ExecResult
	err      error
	block    bool
}

func (s *stubRunner) Run(ctx context.Context, req *ExecRequest) (*ExecResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return &ExecResult{Stdout: "partial", Killed: true, KillReason: "timeout"}, nil
	}
	if s.result == nil {
		return &ExecResult{}, s.err
	}
	return s.result, s.err
}

func (s *stubRunner) Start(req *ExecRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.err
}

func (s *stubRunner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func newTestShell(platform Platform, runner CommandRunner, timeout time.Duration) *Shell {
	cfg := DefaultConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	return NewShell(cfg, NewPolicy(cfg, platform), runner, nil)
}

func TestShellRejectsBeforeSpawning(t *testing.T) {
	t.Parallel()

	for _, platform := range []Platform{PlatformWindows, PlatformDarwin, PlatformLinux} {
		t.Run(string(platform), func(t *testing.T) {
			runner := &stubRunner{}
			sh := newTestShell(platform, runner, 0)

			for _, line := range []string{"format c:", "mkfs /dev/sda", "shutdown now", "", "dd if=/dev/zero"} {
				out := sh.Execute(context.Background(), line)
				if out.Succeeded {
					t.Errorf("%q: expected rejection", line)
				}
			}
			if n := runner.calls(); n != 0 {
				t.Errorf("runner called %d times, want 0", n)
			}
		})
	}
}

func TestShellTimeout(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{block: true}
	sh := newTestShell(PlatformLinux, runner, 50*time.Millisecond)

	out := sh.Execute(context.Background(), "ls -R /")
	if out.Succeeded {
		t.Fatal("expected failure on timeout")
	}
	if out.Kind != outcome.CommandTimedOut {
		t.Errorf("kind = %q, want %q", out.Kind, outcome.CommandTimedOut)
	}
	if strings.Contains(out.String(), "partial") {
		t.Errorf("partial output leaked into timeout outcome: %q", out.String())
	}
}

func TestShellOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result *ExecResult
		want   string
	}{
		{"stdout only", &ExecResult{Stdout: "hello\n\n"}, "hello"},
		{"stderr fallback", &ExecResult{Stderr: "fatal: not a repo\n", ExitCode: 128}, "fatal: not a repo"},
		{"both", &ExecResult{Stdout: "out\n", Stderr: "warn\n"}, "out\nwarn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{result: tt.result}
			sh := newTestShell(PlatformLinux, runner, 0)

			out := sh.Execute(context.Background(), "git status")
			if !out.Succeeded {
				t.Fatalf("expected success, got %s", out)
			}
			if out.Raw != tt.want {
				t.Errorf("raw = %q, want %q", out.Raw, tt.want)
			}
			if !strings.HasPrefix(out.String(), "💻 [Linux] git status") {
				t.Errorf("unexpected header: %q", out.String())
			}
		})
	}
}

func TestShellExecutionError(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{err: errors.New("exec: not found")}
	sh := newTestShell(PlatformLinux, runner, 0)

	out := sh.Execute(context.Background(), "git status")
	if out.Kind != outcome.ExecutionError {
		t.Errorf("kind = %q, want %q", out.Kind, outcome.ExecutionError)
	}
	if !strings.Contains(out.Message, "exec: not found") {
		t.Errorf("message should carry the cause: %q", out.Message)
	}
}

func TestShellTruncatesOutput(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxOutputBytes = 10
	runner := &stubRunner{result: &ExecResult{Stdout: strings.Repeat("x", 100)}}
	sh := NewShell(cfg, NewPolicy(cfg, PlatformLinux), runner, nil)

	out := sh.Execute(context.Background(), "cat big.txt")
	if !strings.HasPrefix(out.Raw, strings.Repeat("x", 10)+"\n") || !strings.Contains(out.Raw, "truncated") {
		t.Errorf("unexpected truncated output: %q", out.Raw)
	}
}

func TestShellParentCancelIsNotTimeout(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{block: true}
	sh := newTestShell(PlatformLinux, runner, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for runner.calls() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	out := sh.Execute(ctx, "ls")
	if out.Succeeded || out.Kind != outcome.ExecutionError {
		t.Fatalf("expected ExecutionError, got %+v", out)
	}
	if strings.Contains(out.Message, "timed out") {
		t.Errorf("cancellation reported as timeout: %q", out.Message)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		limit int64
		want  string
	}{
		{name: "ascii", in: "abcdef", limit: 3, want: "abc"},
		{name: "cut inside rune", in: "aé", limit: 2, want: "a"},
		{name: "cut after rune", in: "éa", limit: 2, want: "é"},
		{name: "emoji", in: "ok📁x", limit: 4, want: "ok"},
		{name: "fits", in: "📁", limit: 4, want: "📁"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := truncate(tt.in, tt.limit)
			got = strings.TrimSuffix(got, "\n... (output truncated)")
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}
