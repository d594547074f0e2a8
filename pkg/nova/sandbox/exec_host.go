// Package sandbox – exec_host.go implements the host command runner.
// Commands run directly on the host via os/exec with no isolation.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// HostRunner runs commands on the host, either through the platform shell or
// directly as a program.
type HostRunner struct {
	workDir string
	logger  *slog.Logger
}

// NewHostRunner creates a runner rooted at workDir. An empty workDir uses
// the process working directory.
func NewHostRunner(workDir string, logger *slog.Logger) *HostRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &HostRunner{workDir: workDir, logger: logger.With("component", "runner")}
}

// Run executes req and waits for it.
func (r *HostRunner) Run(ctx context.Context, req *ExecRequest) (*ExecResult, error) {
	cmd, err := r.buildCommand(ctx, req)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()

	result := &ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		result.Killed = true
		result.KillReason = "timeout"
		if errors.Is(ctx.Err(), context.Canceled) {
			result.KillReason = "canceled"
		}
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("executing %s: %w", describe(req), err)
	}
	return result, nil
}

// Start launches req without waiting. The child outlives any request
// context and is reaped in the background.
func (r *HostRunner) Start(req *ExecRequest) error {
	cmd, err := r.buildCommand(context.Background(), req)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", describe(req), err)
	}
	r.logger.Debug("process started", "cmd", describe(req), "pid", cmd.Process.Pid)
	go func() { _ = cmd.Wait() }()
	return nil
}

// buildCommand constructs the exec.Cmd for req, bound to ctx.
func (r *HostRunner) buildCommand(ctx context.Context, req *ExecRequest) (*exec.Cmd, error) {
	if req == nil || (req.Command == "" && req.Program == "") {
		return nil, fmt.Errorf("empty exec request")
	}

	var cmd *exec.Cmd
	if req.Command != "" {
		cmd = shellCommand(ctx, req.Command)
	} else {
		cmd = exec.CommandContext(ctx, req.Program, req.Args...)
	}

	if req.WorkDir != "" {
		cmd.Dir = req.WorkDir
	} else if r.workDir != "" {
		cmd.Dir = r.workDir
	}

	setSysProcAttr(cmd)
	// Cancel kills the process group.
	cmd.Cancel = func() error { return killProcGroup(cmd) }
	cmd.WaitDelay = 2 * time.Second
	return cmd, nil
}

func describe(req *ExecRequest) string {
	if req.Command != "" {
		return req.Command
	}
	return req.Program
}
