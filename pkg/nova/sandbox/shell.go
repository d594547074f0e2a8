// Package sandbox – shell.go implements the allowlisted shell executor.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jholhewres/nova/pkg/nova/outcome"
)

// Shell runs allowlisted command lines through a CommandRunner.
type Shell struct {
	cfg    Config
	policy *Policy
	runner CommandRunner
	logger *slog.Logger
}

// NewShell creates a shell executor. The policy decides which commands may
// run; the runner performs them.
func NewShell(cfg Config, policy *Policy, runner CommandRunner, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = DefaultConfig().MaxOutputBytes
	}
	return &Shell{
		cfg:    cfg,
		policy: policy,
		runner: runner,
		logger: logger.With("component", "shell"),
	}
}

// Policy returns the allowlist policy in use.
func (s *Shell) Policy() *Policy { return s.policy }

// Execute validates commandLine against the allowlist and runs it with the
// configured timeout. The command's exit status is not inspected; callers
// only see its text.
func (s *Shell) Execute(ctx context.Context, commandLine string) outcome.Outcome {
	commandLine = strings.TrimSpace(commandLine)
	base, err := s.policy.Validate(commandLine)
	if err != nil {
		s.logger.Warn("command rejected", "command", commandLine, "base", base, "error", err)
		return outcome.FromError(err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.logger.Debug("executing command", "command", commandLine, "timeout", s.cfg.Timeout)

	result, err := s.runner.Run(runCtx, &ExecRequest{Command: commandLine, WorkDir: s.cfg.WorkDir})
	if ctx.Err() != nil {
		s.logger.Warn("command canceled", "command", commandLine, "error", ctx.Err())
		return outcome.Failure(outcome.ExecutionError, "Command canceled: %s", commandLine)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) || (result != nil && result.Killed) {
		s.logger.Warn("command timed out", "command", commandLine, "timeout", s.cfg.Timeout)
		return outcome.Failure(outcome.CommandTimedOut,
			"Command timed out (%d seconds)", int(s.cfg.Timeout.Seconds()))
	}
	if err != nil {
		s.logger.Error("command failed", "command", commandLine, "error", err)
		return outcome.Failure(outcome.ExecutionError, "Error executing command: %v", err)
	}

	s.logger.Info("command executed", "command", commandLine,
		"exit_code", result.ExitCode, "duration_ms", result.Duration.Milliseconds())

	output := combineOutput(result.Stdout, result.Stderr)
	output = truncate(output, s.cfg.MaxOutputBytes)

	return outcome.WithPayload(outcome.IconShell,
		fmt.Sprintf("[%s] %s", s.policy.Platform().DisplayName(), commandLine), output)
}

// combineOutput prefers whichever stream has content and joins them when both
// do. Trailing whitespace is trimmed.
func combineOutput(stdout, stderr string) string {
	stdout = strings.TrimRight(stdout, " \t\r\n")
	stderr = strings.TrimRight(stderr, " \t\r\n")
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}

// truncate cuts s to at most limit bytes on a rune boundary.
func truncate(s string, limit int64) string {
	if limit <= 0 || int64(len(s)) <= limit {
		return s
	}
	cut := int(limit)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (output truncated)"
}
