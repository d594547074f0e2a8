package desktop

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jholhewres/nova/pkg/nova/outcome"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

const systemTimeout = 30 * time.Second

// SystemAction is an OS power or volume action.
type SystemAction string

const (
	Lock       SystemAction = "lock"
	Sleep      SystemAction = "sleep"
	Shutdown   SystemAction = "shutdown"
	Restart    SystemAction = "restart"
	VolumeUp   SystemAction = "volume_up"
	VolumeDown SystemAction = "volume_down"
	Mute       SystemAction = "mute"
)

// Destructive reports whether a is intercepted instead of executed.
func (a SystemAction) Destructive() bool {
	return a == Shutdown || a == Restart
}

// SystemCommands maps each platform's actions to native command lines.
type SystemCommands map[sandbox.Platform]map[SystemAction]string

// DefaultSystemCommands returns the built-in command table.
func DefaultSystemCommands() SystemCommands {
	return SystemCommands{
		sandbox.PlatformWindows: {
			Lock:       "rundll32.exe user32.dll,LockWorkStation",
			Sleep:      "rundll32.exe powrprof.dll,SetSuspendState 0,1,0",
			Shutdown:   "shutdown /s /t 60",
			Restart:    "shutdown /r /t 60",
			VolumeUp:   `powershell -c "(New-Object -comObject WScript.Shell).SendKeys([char]175)"`,
			VolumeDown: `powershell -c "(New-Object -comObject WScript.Shell).SendKeys([char]174)"`,
			Mute:       `powershell -c "(New-Object -comObject WScript.Shell).SendKeys([char]173)"`,
		},
		sandbox.PlatformDarwin: {
			Lock:       "pmset displaysleepnow",
			Sleep:      "pmset sleepnow",
			Shutdown:   "sudo shutdown -h +1",
			Restart:    "sudo shutdown -r +1",
			VolumeUp:   `osascript -e "set volume output volume (output volume of (get volume settings) + 10)"`,
			VolumeDown: `osascript -e "set volume output volume (output volume of (get volume settings) - 10)"`,
			Mute:       `osascript -e "set volume with output muted"`,
		},
		sandbox.PlatformLinux: {
			Lock:       "gnome-screensaver-command -l",
			Sleep:      "systemctl suspend",
			Shutdown:   "shutdown +1",
			Restart:    "shutdown -r +1",
			VolumeUp:   "pactl set-sink-volume @DEFAULT_SINK@ +10%",
			VolumeDown: "pactl set-sink-volume @DEFAULT_SINK@ -10%",
			Mute:       "pactl set-sink-mute @DEFAULT_SINK@ toggle",
		},
	}
}

// System runs power and volume actions for one platform. Shutdown and
// restart never reach the runner.
type System struct {
	platform sandbox.Platform
	commands map[SystemAction]string
	runner   sandbox.CommandRunner
	logger   *slog.Logger
}

// NewSystem creates a system controller for platform.
func NewSystem(platform sandbox.Platform, commands SystemCommands, runner sandbox.CommandRunner, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	if commands == nil {
		commands = DefaultSystemCommands()
	}
	return &System{
		platform: platform,
		commands: commands[platform],
		runner:   runner,
		logger:   logger.With("component", "system"),
	}
}

// Actions returns the actions available on the platform, sorted.
func (s *System) Actions() []string {
	out := make([]string, 0, len(s.commands))
	for a := range s.commands {
		out = append(out, string(a))
	}
	sort.Strings(out)
	return out
}

// Control performs action.
func (s *System) Control(ctx context.Context, action string) outcome.Outcome {
	if !s.platform.Supported() {
		return outcome.Failure(outcome.UnsupportedPlatform,
			"Unsupported operating system: %s", s.platform.DisplayName())
	}

	a := SystemAction(strings.ToLower(strings.TrimSpace(action)))
	line, ok := s.commands[a]
	if !ok {
		return outcome.Failure(outcome.ActionNotAvailable, "Action '%s' not available on %s. Available: %s",
			action, s.platform.DisplayName(), strings.Join(s.Actions(), ", "))
	}

	if a.Destructive() {
		s.logger.Warn("destructive system action intercepted", "action", a)
		return outcome.Outcome{
			Succeeded: true,
			Icon:      outcome.IconScheduled,
			Message: titleWord(string(a)) + " scheduled in 1 minute. Use " + cancelHint(s.platform) +
				" to cancel.",
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, systemTimeout)
	defer cancel()

	res, err := s.runner.Run(runCtx, &sandbox.ExecRequest{Command: line})
	if err != nil {
		s.logger.Error("system action failed", "action", a, "error", err)
		return outcome.Failure(outcome.ExecutionError, "System control failed: %v", err)
	}
	if res.Killed {
		return outcome.Failure(outcome.CommandTimedOut, "System control timed out: %s", a)
	}
	s.logger.Info("system action executed", "action", a, "exit_code", res.ExitCode)
	return outcome.Success("Executed %s", a)
}

// cancelHint names the command that aborts a pending shutdown.
func cancelHint(p sandbox.Platform) string {
	if p == sandbox.PlatformWindows {
		return "'shutdown /a'"
	}
	return "'sudo shutdown -c'"
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
