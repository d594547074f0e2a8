// Package dispatch is the single entry point between the reasoning oracle
// and the host. Loosely typed (domain, action, target, argument) requests
// are parsed into a closed set of action variants and routed to the handler
// that enforces the matching safety rule.
package dispatch

import (
	"strings"

	"github.com/jholhewres/nova/pkg/nova/desktop"
	"github.com/jholhewres/nova/pkg/nova/outcome"
	"github.com/jholhewres/nova/pkg/nova/vcs"
)

// Domain groups related actions.
type Domain string

const (
	DomainFile    Domain = "file"
	DomainVCS     Domain = "vcs"
	DomainProcess Domain = "process"
	DomainWeb     Domain = "web"
	DomainSystem  Domain = "system"
)

// Domains lists every domain.
var Domains = []Domain{DomainFile, DomainVCS, DomainProcess, DomainWeb, DomainSystem}

// Request is a raw action request. Absent fields are empty strings.
type Request struct {
	Domain   Domain
	Action   string
	Target   string
	Argument string
}

// Action is a validated request. The set of implementations is closed.
type Action interface {
	Domain() Domain
	Name() string
	Subject() string
	isAction()
}

// FileOp is a file domain operation.
type FileOp string

const (
	FileCreate FileOp = "create"
	FileRead   FileOp = "read"
	FileUpdate FileOp = "update"
	FileList   FileOp = "list"
	FileMkdir  FileOp = "mkdir"
	FileRun    FileOp = "run"
)

var fileOps = []FileOp{FileCreate, FileRead, FileUpdate, FileList, FileMkdir, FileRun}

// FileAction operates on a path under the project root. For FileRun, Path
// holds the shell command line.
type FileAction struct {
	Op      FileOp
	Path    string
	Content string
}

// VCSAction runs a git operation. Arg is the file list for add and the
// message for commit.
type VCSAction struct {
	Op  vcs.Action
	Arg string
}

// ProcessOp is a process domain operation.
type ProcessOp string

const (
	ProcessOpen  ProcessOp = "open"
	ProcessClose ProcessOp = "close"
	ProcessList  ProcessOp = "list"
)

var processOps = []ProcessOp{ProcessOpen, ProcessClose, ProcessList}

// ProcessAction launches, closes or lists applications.
type ProcessAction struct {
	Op  ProcessOp
	App string
}

// WebOp is a web domain operation.
type WebOp string

const (
	WebWebsite WebOp = "website"
	WebSearch  WebOp = "search"
)

var webOps = []WebOp{WebWebsite, WebSearch}

// WebAction opens a website or a platform search. Target is the URL for
// website and the platform name for search.
type WebAction struct {
	Op     WebOp
	Target string
	Query  string
}

// SystemAction issues an OS power or volume action.
type SystemAction struct {
	Op desktop.SystemAction
}

var systemOps = []desktop.SystemAction{
	desktop.Lock, desktop.Sleep, desktop.Shutdown, desktop.Restart,
	desktop.VolumeUp, desktop.VolumeDown, desktop.Mute,
}

func (FileAction) Domain() Domain    { return DomainFile }
func (VCSAction) Domain() Domain     { return DomainVCS }
func (ProcessAction) Domain() Domain { return DomainProcess }
func (WebAction) Domain() Domain     { return DomainWeb }
func (SystemAction) Domain() Domain  { return DomainSystem }

func (a FileAction) Name() string    { return string(a.Op) }
func (a VCSAction) Name() string     { return string(a.Op) }
func (a ProcessAction) Name() string { return string(a.Op) }
func (a WebAction) Name() string     { return string(a.Op) }
func (a SystemAction) Name() string  { return string(a.Op) }

func (a FileAction) Subject() string    { return a.Path }
func (a VCSAction) Subject() string     { return a.Arg }
func (a ProcessAction) Subject() string { return a.App }
func (a WebAction) Subject() string {
	if a.Query != "" {
		return a.Target + ": " + a.Query
	}
	return a.Target
}
func (a SystemAction) Subject() string { return "" }

func (FileAction) isAction()    {}
func (VCSAction) isAction()     {}
func (ProcessAction) isAction() {}
func (WebAction) isAction()     {}
func (SystemAction) isAction()  {}

// Parse validates r and builds the matching action. Unknown domains or
// actions and missing required fields are rejected here, before any handler
// runs.
func Parse(r Request) (Action, error) {
	name := strings.ToLower(strings.TrimSpace(r.Action))
	target := strings.TrimSpace(r.Target)

	switch Domain(strings.ToLower(strings.TrimSpace(string(r.Domain)))) {
	case DomainFile:
		op, ok := lookup(fileOps, FileOp(name))
		if !ok {
			return nil, unknownAction(DomainFile, r.Action, fileOps)
		}
		if target == "" && op != FileList {
			return nil, outcome.Errorf(outcome.InvalidAction, "%s requires a path", op)
		}
		return FileAction{Op: op, Path: target, Content: r.Argument}, nil

	case DomainVCS:
		op, err := vcs.ParseAction(name)
		if err != nil {
			return nil, err
		}
		return VCSAction{Op: op, Arg: r.Argument}, nil

	case DomainProcess:
		op, ok := lookup(processOps, ProcessOp(name))
		if !ok {
			return nil, unknownAction(DomainProcess, r.Action, processOps)
		}
		if target == "" && op != ProcessList {
			return nil, outcome.Errorf(outcome.InvalidAction, "%s requires an application name", op)
		}
		return ProcessAction{Op: op, App: target}, nil

	case DomainWeb:
		op, ok := lookup(webOps, WebOp(name))
		if !ok {
			return nil, unknownAction(DomainWeb, r.Action, webOps)
		}
		if target == "" {
			if op == WebSearch {
				return nil, outcome.Errorf(outcome.InvalidAction, "search requires a platform")
			}
			return nil, outcome.Errorf(outcome.InvalidAction, "website requires a URL")
		}
		return WebAction{Op: op, Target: target, Query: strings.TrimSpace(r.Argument)}, nil

	case DomainSystem:
		op, ok := lookup(systemOps, desktop.SystemAction(name))
		if !ok {
			return nil, outcome.Errorf(outcome.ActionNotAvailable, "Action '%s' not available. Available: %s",
				r.Action, joinOps(systemOps))
		}
		return SystemAction{Op: op}, nil

	default:
		return nil, outcome.Errorf(outcome.InvalidAction, "Unknown domain '%s'. Available: %s",
			r.Domain, joinOps(Domains))
	}
}

func lookup[T ~string](ops []T, want T) (T, bool) {
	for _, op := range ops {
		if op == want {
			return op, true
		}
	}
	return "", false
}

func unknownAction[T ~string](d Domain, name string, ops []T) error {
	return outcome.Errorf(outcome.InvalidAction, "Unknown %s action '%s'. Available: %s", d, name, joinOps(ops))
}

func joinOps[T ~string](ops []T) string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}
