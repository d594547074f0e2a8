package outcome

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	t.Parallel()

	err := Errorf(PathEscape, "path %q escapes root", "../x")
	if !errors.Is(err, ErrPathEscape) {
		t.Error("expected errors.Is to match ErrPathEscape")
	}
	if errors.Is(err, ErrFileNotFound) {
		t.Error("expected no match against a different kind")
	}

	wrapped := fmt.Errorf("creating file: %w", err)
	if !errors.Is(wrapped, ErrPathEscape) {
		t.Error("expected match through fmt.Errorf wrapping")
	}
	if got := KindOf(wrapped); got != PathEscape {
		t.Errorf("KindOf = %q, want %q", got, PathEscape)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	if got := KindOf(nil); got != KindNone {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
	if got := KindOf(errors.New("boom")); got != Unknown {
		t.Errorf("KindOf(plain) = %q, want %q", got, Unknown)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 1")
	err := Wrap(ExecutionError, cause, "running %s", "ls")
	if got := err.Error(); got != "running ls: exit status 1" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via Unwrap")
	}
	if got := ErrCommandTimedOut.Error(); got != string(CommandTimedOut) {
		t.Errorf("bare sentinel message = %q", got)
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		o    Outcome
		want string
	}{
		{"success", Success("Created file: %s", "a.txt"), "✅ Created file: a.txt"},
		{"failure", Failure(FileNotFound, "File not found: %s", "b.txt"), "❌ File not found: b.txt"},
		{"payload", WithPayload(IconFile, "Contents of a.txt:", "hello"), "📄 Contents of a.txt:\nhello"},
		{"scheduled", Outcome{Succeeded: true, Icon: IconScheduled, Message: "Shutdown scheduled"}, "⚠️ Shutdown scheduled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.o.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcomeErr(t *testing.T) {
	t.Parallel()

	if err := Success("ok").Err(); err != nil {
		t.Errorf("expected nil error for success, got %v", err)
	}

	o := Failure(CommandNotAllowed, "Command 'rm' not allowed on Linux.")
	err := o.Err()
	if !errors.Is(err, ErrCommandNotAllowed) {
		t.Errorf("expected ErrCommandNotAllowed, got %v", err)
	}
	if !strings.Contains(err.Error(), "rm") {
		t.Errorf("expected message to survive, got %q", err.Error())
	}

	fromErr := FromError(Errorf(ApplicationNotFound, "Could not find foo"))
	if fromErr.Succeeded || fromErr.Kind != ApplicationNotFound {
		t.Errorf("FromError = %+v", fromErr)
	}
}
