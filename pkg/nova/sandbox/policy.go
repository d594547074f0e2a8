// Package sandbox – policy.go implements the per-platform command allowlist.
package sandbox

import (
	"sort"
	"strings"

	"github.com/jholhewres/nova/pkg/nova/outcome"
)

// Allowlist maps each platform to its set of permitted leading tokens.
type Allowlist map[Platform]map[string]bool

// Policy decides whether a command line may run on a platform.
type Policy struct {
	platform Platform
	allowed  Allowlist
}

// NewPolicy creates a Policy from the built-in allowlist plus any extra
// tokens from cfg.
func NewPolicy(cfg Config, platform Platform) *Policy {
	allowed := DefaultAllowlist()
	for p, extra := range cfg.ExtraAllowed {
		set, ok := allowed[p]
		if !ok {
			continue
		}
		for _, bin := range extra {
			if bin = strings.TrimSpace(bin); bin != "" {
				set[bin] = true
			}
		}
	}
	return &Policy{platform: platform, allowed: allowed}
}

// Platform returns the platform the policy evaluates against.
func (p *Policy) Platform() Platform { return p.platform }

// Validate checks commandLine and returns its leading token. Only the first
// whitespace-separated token is inspected; arguments, including shell
// metacharacters, are not.
func (p *Policy) Validate(commandLine string) (string, error) {
	parts := strings.Fields(commandLine)
	if len(parts) == 0 {
		return "", outcome.Errorf(outcome.EmptyCommand, "Empty command")
	}

	set, ok := p.allowed[p.platform]
	if !ok || !p.platform.Supported() {
		return "", outcome.Errorf(outcome.UnsupportedPlatform,
			"Unsupported operating system: %s", p.platform.DisplayName())
	}

	base := parts[0]
	if !set[base] {
		return base, outcome.Errorf(outcome.CommandNotAllowed,
			"Command '%s' not allowed on %s.", base, p.platform.DisplayName())
	}
	return base, nil
}

// IsAllowed reports whether bin is a permitted leading token.
func (p *Policy) IsAllowed(bin string) bool {
	return p.allowed[p.platform][bin]
}

// Allowed returns the sorted allowlist for the policy's platform.
func (p *Policy) Allowed() []string {
	set := p.allowed[p.platform]
	out := make([]string, 0, len(set))
	for bin := range set {
		out = append(out, bin)
	}
	sort.Strings(out)
	return out
}

// ---------- Defaults ----------

// DefaultAllowlist returns a fresh copy of the built-in allowlist.
func DefaultAllowlist() Allowlist {
	return Allowlist{
		PlatformWindows: setOf(
			// Filesystem
			"dir", "copy", "move", "del", "type", "mkdir", "rmdir", "cd", "md", "rd",
			"findstr", "where", "tree", "attrib", "xcopy", "robocopy",
			// Development
			"npm", "npx", "node", "python", "pip", "git", "curl", "code", "notepad",
			// Info
			"whoami", "date", "time", "echo", "set", "path", "ver",
			// Package managers and shells
			"choco", "winget", "powershell", "cmd",
		),
		PlatformDarwin: setOf(
			"ls", "cp", "mv", "rm", "cat", "touch", "mkdir", "rmdir", "cd", "pwd",
			"head", "tail", "grep", "find", "which", "tree", "chmod", "chown",
			"npm", "node", "python", "pip", "git", "curl", "wget", "code", "vim", "nano",
			"whoami", "date", "echo", "env", "ps", "top", "kill", "killall",
			"brew", "open", "pbcopy", "pbpaste",
		),
		PlatformLinux: setOf(
			"ls", "cp", "mv", "rm", "cat", "touch", "mkdir", "rmdir", "cd", "pwd",
			"head", "tail", "grep", "find", "which", "tree", "chmod", "chown",
			"npm", "node", "python", "pip", "git", "curl", "wget", "code", "vim", "nano",
			"whoami", "date", "echo", "env", "ps", "top", "kill", "killall",
			"apt", "yum", "systemctl",
		),
	}
}

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
