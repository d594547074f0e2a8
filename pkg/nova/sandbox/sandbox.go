// Package sandbox mediates every host command the assistant runs.
//
// It provides:
//
//   - Path confinement: relative paths are resolved against a fixed project
//     root and anything that escapes it is rejected.
//   - Command allowlisting: the leading token of a shell command must appear
//     in the allowlist for the host platform.
//   - Shell execution with a hard timeout and combined output capture.
//   - A CommandRunner abstraction so callers (launcher, system control) can
//     be exercised against stubs in tests.
//
// This is not an isolation sandbox. It trusts the single local operator and
// only stops obviously out-of-tree or unlisted actions.
package sandbox

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Platform identifies a supported host operating system family.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformDarwin  Platform = "darwin"
	PlatformLinux   Platform = "linux"
)

// CurrentPlatform returns the platform the binary is running on. The result
// may be unsupported (freebsd, plan9, ...); check Supported.
func CurrentPlatform() Platform {
	return Platform(runtime.GOOS)
}

// Supported reports whether p is one of the three supported families.
func (p Platform) Supported() bool {
	switch p {
	case PlatformWindows, PlatformDarwin, PlatformLinux:
		return true
	}
	return false
}

// DisplayName returns the conventional OS name shown to users.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformWindows:
		return "Windows"
	case PlatformDarwin:
		return "Darwin"
	case PlatformLinux:
		return "Linux"
	default:
		return string(p)
	}
}

// ExeSuffix is the executable file suffix on p.
func (p Platform) ExeSuffix() string {
	if p == PlatformWindows {
		return ".exe"
	}
	return ""
}

// Config holds the shell execution configuration.
type Config struct {
	// Timeout is the hard limit for a single shell command.
	// Defaults to 30s.
	Timeout time.Duration `yaml:"timeout"`

	// MaxOutputBytes limits captured stdout+stderr.
	// Defaults to 1MB.
	MaxOutputBytes int64 `yaml:"max_output_bytes"`

	// ExtraAllowed appends leading tokens to the built-in allowlist,
	// keyed by platform.
	ExtraAllowed map[Platform][]string `yaml:"extra_allowed"`

	// WorkDir is the working directory for commands. Set from the
	// project root at startup, never from config.
	WorkDir string `yaml:"-"`
}

// DefaultConfig returns a Config with the standard limits.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		MaxOutputBytes: 1 * 1024 * 1024,
	}
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxOutputBytes <= 0 {
		return fmt.Errorf("max_output_bytes must be positive")
	}
	for p := range c.ExtraAllowed {
		if !p.Supported() {
			return fmt.Errorf("extra_allowed: unsupported platform %q", p)
		}
	}
	return nil
}

// ExecRequest describes one host command.
type ExecRequest struct {
	// Command is a full command line interpreted by the host shell.
	// When set, Program and Args are ignored.
	Command string

	// Program and Args run an executable directly, without a shell.
	Program string
	Args    []string

	// WorkDir overrides the runner's working directory.
	WorkDir string
}

// ExecResult holds the outcome of a finished command.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration

	// Killed is true if the process was stopped by its context.
	Killed     bool
	KillReason string
}

// CommandRunner runs host commands.
type CommandRunner interface {
	// Run executes the request and waits for it to finish or for ctx to
	// expire. A non-zero exit status is reported in the result, not as an
	// error.
	Run(ctx context.Context, req *ExecRequest) (*ExecResult, error)

	// Start launches the request and returns without waiting.
	Start(req *ExecRequest) error
}
