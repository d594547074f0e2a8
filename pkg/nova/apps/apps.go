// Package apps launches, lists and terminates desktop applications.
//
// Launching walks an ordered, per-platform chain of strategies and stops at
// the first one that succeeds. Termination and listing go through a
// ProcessTable so both can be exercised without touching real processes.
package apps

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"

	"github.com/pkg/browser"

	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

// DescriptorKind says how a launch descriptor is dispatched.
type DescriptorKind string

const (
	// KindURI is handed to the OS URI handler (e.g. "spotify:").
	KindURI DescriptorKind = "uri"

	// KindPath is an absolute path template. Environment references are
	// expanded and the file must exist.
	KindPath DescriptorKind = "path"

	// KindCommand is a command line passed to the shell without any
	// existence check.
	KindCommand DescriptorKind = "command"

	// KindExecutable is a program name resolved through PATH.
	KindExecutable DescriptorKind = "executable"

	// KindBundle is a macOS application bundle name opened with "open -a".
	KindBundle DescriptorKind = "bundle"
)

// Descriptor is one candidate way of launching an application.
type Descriptor struct {
	Kind  DescriptorKind `yaml:"kind"`
	Value string         `yaml:"value"`
	Args  []string       `yaml:"args,omitempty"`
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s", d.Kind, d.Value)
}

// Host is the slice of the operating system the launcher needs.
type Host interface {
	// Start launches req and returns without waiting.
	Start(req *sandbox.ExecRequest) error

	// Run executes req and waits for it.
	Run(ctx context.Context, req *sandbox.ExecRequest) (*sandbox.ExecResult, error)

	// OpenURI dispatches uri through the OS URI handler.
	OpenURI(uri string) error

	// Exists reports whether path names an existing file.
	Exists(path string) bool

	// LookPath resolves an executable name through PATH.
	LookPath(name string) (string, error)

	// ExpandEnv expands environment references in s.
	ExpandEnv(s string) string
}

// SystemHost is the Host backed by the real operating system.
type SystemHost struct {
	runner sandbox.CommandRunner
}

// NewSystemHost creates a host that runs commands through runner.
func NewSystemHost(runner sandbox.CommandRunner) *SystemHost {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &SystemHost{runner: runner}
}

func (h *SystemHost) Start(req *sandbox.ExecRequest) error { return h.runner.Start(req) }

func (h *SystemHost) Run(ctx context.Context, req *sandbox.ExecRequest) (*sandbox.ExecResult, error) {
	return h.runner.Run(ctx, req)
}

func (h *SystemHost) OpenURI(uri string) error { return browser.OpenURL(uri) }

func (h *SystemHost) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (h *SystemHost) LookPath(name string) (string, error) { return exec.LookPath(name) }

var percentVarRe = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_()]*)%`)

// ExpandEnv expands both %VAR% and $VAR / ${VAR} references. Unknown %VAR%
// references are left as-is so the path simply fails to exist.
func (h *SystemHost) ExpandEnv(s string) string {
	s = percentVarRe.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := os.LookupEnv(m[1 : len(m)-1]); ok {
			return v
		}
		return m
	})
	return os.ExpandEnv(s)
}
