package vcs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jholhewres/nova/pkg/nova/outcome"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

type recordingShell struct {
	lines []string
}

func (r *recordingShell) Execute(_ context.Context, line string) outcome.Outcome {
	r.lines = append(r.lines, line)
	return outcome.WithPayload(outcome.IconShell, line, "ok")
}

func TestCommandFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform sandbox.Platform
		action   Action
		arg      string
		want     string
		wantErr  error
	}{
		{"status", sandbox.PlatformLinux, Status, "", "git status", nil},
		{"add default", sandbox.PlatformLinux, Add, "", "git add .", nil},
		{"add files", sandbox.PlatformLinux, Add, "main.go go.mod", "git add main.go go.mod", nil},
		{"commit", sandbox.PlatformLinux, Commit, "fix bug", `git commit -m "fix bug"`, nil},
		{"commit quoting unix", sandbox.PlatformDarwin, Commit, `say "hi" $HOME`, `git commit -m "say \"hi\" \$HOME"`, nil},
		{"commit quoting windows", sandbox.PlatformWindows, Commit, `say "hi"`, `git commit -m "say \"hi\""`, nil},
		{"commit empty", sandbox.PlatformLinux, Commit, "  ", "", outcome.ErrMissingCommitMessage},
		{"push", sandbox.PlatformLinux, Push, "", "git push", nil},
		{"pull", sandbox.PlatformLinux, Pull, "", "git pull", nil},
		{"log", sandbox.PlatformLinux, Log, "", "git log --oneline -10", nil},
		{"unknown", sandbox.PlatformLinux, Action("rebase"), "", "", outcome.ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CommandFor(tt.platform, tt.action, tt.arg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdapterDelegatesToShell(t *testing.T) {
	t.Parallel()

	shell := &recordingShell{}
	a := NewAdapter(shell, sandbox.PlatformLinux, nil)

	if out := a.Run(context.Background(), Log, ""); !out.Succeeded {
		t.Fatalf("Run: %s", out)
	}
	if len(shell.lines) != 1 || shell.lines[0] != "git log --oneline -10" {
		t.Errorf("shell received %v", shell.lines)
	}

	out := a.Run(context.Background(), Commit, "")
	if out.Kind != outcome.MissingCommitMessage {
		t.Errorf("expected MissingCommitMessage, got %+v", out)
	}
	if len(shell.lines) != 1 {
		t.Error("shell must not run when the commit message is missing")
	}
}

func TestAdapterInheritsAllowlist(t *testing.T) {
	t.Parallel()

	cfg := sandbox.DefaultConfig()
	cfg.Timeout = time.Second
	// A policy for an unsupported platform rejects everything before spawning.
	sh := sandbox.NewShell(cfg, sandbox.NewPolicy(cfg, sandbox.Platform("plan9")), nil, nil)
	a := NewAdapter(sh, sandbox.PlatformLinux, nil)

	out := a.Run(context.Background(), Status, "")
	if out.Kind != outcome.UnsupportedPlatform {
		t.Errorf("expected UnsupportedPlatform, got %+v", out)
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	if a, err := ParseAction(" Commit "); err != nil || a != Commit {
		t.Errorf("ParseAction = %q, %v", a, err)
	}
	if _, err := ParseAction("rebase"); !errors.Is(err, outcome.ErrInvalidAction) {
		t.Errorf("expected InvalidAction, got %v", err)
	}
}
