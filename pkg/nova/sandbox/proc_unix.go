//go:build !windows

package sandbox

import (
	"context"
	"os/exec"
	"syscall"
)

// shellCommand wraps line in the POSIX shell.
func shellCommand(ctx context.Context, line string) *exec.Cmd {
	return exec.CommandContext(ctx, "/bin/sh", "-c", line)
}

// setSysProcAttr puts the child in its own process group so a timeout can
// kill the whole tree and terminal signals do not reach launched apps.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process != nil {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	return nil
}
