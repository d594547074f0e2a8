// Package vcs translates symbolic git actions into allowlisted shell
// commands. Every action runs through the shell executor and so inherits its
// allowlist and timeout.
package vcs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jholhewres/nova/pkg/nova/outcome"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

// Action is a symbolic git operation.
type Action string

const (
	Status Action = "status"
	Add    Action = "add"
	Commit Action = "commit"
	Push   Action = "push"
	Pull   Action = "pull"
	Log    Action = "log"
)

// Actions lists every supported action in display order.
var Actions = []Action{Status, Add, Commit, Push, Pull, Log}

// ParseAction validates a user-supplied action name.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", outcome.Errorf(outcome.InvalidAction, "Unknown git action '%s'. Available: %s", name, joinActions())
}

// Executor runs a shell command line and reports its outcome.
type Executor interface {
	Execute(ctx context.Context, commandLine string) outcome.Outcome
}

// Adapter runs git actions through an Executor.
type Adapter struct {
	shell    Executor
	platform sandbox.Platform
	logger   *slog.Logger
}

// NewAdapter creates a git adapter. platform selects the quoting rules for
// commit messages.
func NewAdapter(shell Executor, platform sandbox.Platform, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{shell: shell, platform: platform, logger: logger.With("component", "vcs")}
}

// Run performs action. arg carries the file list for add and the message for
// commit; other actions ignore it.
func (a *Adapter) Run(ctx context.Context, action Action, arg string) outcome.Outcome {
	line, err := CommandFor(a.platform, action, arg)
	if err != nil {
		a.logger.Warn("git action rejected", "action", action, "error", err)
		return outcome.FromError(err)
	}
	a.logger.Info("git action", "action", action)
	return a.shell.Execute(ctx, line)
}

// CommandFor builds the git command line for action.
func CommandFor(platform sandbox.Platform, action Action, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	switch action {
	case Status:
		return "git status", nil
	case Add:
		if arg == "" {
			arg = "."
		}
		return "git add " + arg, nil
	case Commit:
		if arg == "" {
			return "", outcome.Errorf(outcome.MissingCommitMessage, "Commit message required")
		}
		return fmt.Sprintf(`git commit -m "%s"`, quoteMessage(platform, arg)), nil
	case Push:
		return "git push", nil
	case Pull:
		return "git pull", nil
	case Log:
		return "git log --oneline -10", nil
	default:
		return "", outcome.Errorf(outcome.InvalidAction, "Unknown git action '%s'. Available: %s", action, joinActions())
	}
}

// quoteMessage escapes msg for use inside double quotes in the host shell.
func quoteMessage(platform sandbox.Platform, msg string) string {
	if platform == sandbox.PlatformWindows {
		return strings.ReplaceAll(msg, `"`, `\"`)
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	return r.Replace(msg)
}

func joinActions() string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
