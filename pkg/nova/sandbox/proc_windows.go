//go:build windows

package sandbox

import (
	"context"
	"os"
	"os/exec"
	"syscall"
)

// shellCommand wraps line in cmd.exe. The raw command line is passed through
// untouched; Go's argument quoting would otherwise mangle cmd syntax.
func shellCommand(ctx context.Context, line string) *exec.Cmd {
	comspec := os.Getenv("ComSpec")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	cmd := exec.CommandContext(ctx, comspec)
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: `"` + comspec + `" /S /C "` + line + `"`}
	return cmd
}

func setSysProcAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
}

func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process != nil {
		return cmd.Process.Kill()
	}
	return nil
}
