package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/jholhewres/nova/pkg/nova/apps"
	"github.com/jholhewres/nova/pkg/nova/audit"
	"github.com/jholhewres/nova/pkg/nova/desktop"
	"github.com/jholhewres/nova/pkg/nova/files"
	"github.com/jholhewres/nova/pkg/nova/outcome"
	"github.com/jholhewres/nova/pkg/nova/vcs"
)

// Shell runs an allowlisted command line.
type Shell interface {
	Execute(ctx context.Context, commandLine string) outcome.Outcome
}

// Recorder receives one audit entry per handled request.
type Recorder interface {
	Record(e audit.Entry)
}

// Handlers are the capability implementations behind the router. A nil
// handler makes its actions fail with ExecutionError.
type Handlers struct {
	Files     *files.Service
	Shell     Shell
	VCS       *vcs.Adapter
	Launcher  *apps.Launcher
	Processes *apps.Manager
	Web       *desktop.Web
	System    *desktop.System
}

// Router parses requests and forwards them to the matching handler. It is
// used one request at a time.
type Router struct {
	h         Handlers
	recorder  Recorder
	sessionID string
	logger    *slog.Logger
}

// NewRouter creates a router. recorder may be nil.
func NewRouter(h Handlers, recorder Recorder, sessionID string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		h:         h,
		recorder:  recorder,
		sessionID: sessionID,
		logger:    logger.With("component", "router"),
	}
}

// Handle parses r, dispatches it and records the result.
func (rt *Router) Handle(ctx context.Context, r Request) outcome.Outcome {
	start := time.Now()

	var out outcome.Outcome
	action, err := Parse(r)
	if err != nil {
		rt.logger.Warn("request rejected", "domain", r.Domain, "action", r.Action, "error", err)
		out = outcome.FromError(err)
	} else {
		rt.logger.Info("dispatching", "domain", action.Domain(), "action", action.Name(), "target", action.Subject())
		out = rt.Dispatch(ctx, action)
	}

	if rt.recorder != nil {
		rt.recorder.Record(audit.Entry{
			SessionID: rt.sessionID,
			Domain:    string(r.Domain),
			Action:    r.Action,
			Target:    r.Target,
			Succeeded: out.Succeeded,
			Kind:      string(out.Kind),
			Message:   out.Message,
			Duration:  time.Since(start),
		})
	}
	return out
}

// HandleText is Handle rendered to text, the form the oracle consumes.
func (rt *Router) HandleText(ctx context.Context, domain, action, target, argument string) string {
	return rt.Handle(ctx, Request{Domain: Domain(domain), Action: action, Target: target, Argument: argument}).String()
}

// Dispatch runs a validated action. Handler panics are converted into a
// failed outcome.
func (rt *Router) Dispatch(ctx context.Context, a Action) (out outcome.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("handler panicked", "domain", a.Domain(), "action", a.Name(), "panic", r)
			out = outcome.Failure(outcome.Unknown, "Internal error handling %s %s: %v", a.Domain(), a.Name(), r)
		}
	}()

	switch a := a.(type) {
	case FileAction:
		return rt.file(ctx, a)
	case VCSAction:
		if rt.h.VCS == nil {
			return unavailable(a)
		}
		return rt.h.VCS.Run(ctx, a.Op, a.Arg)
	case ProcessAction:
		return rt.process(ctx, a)
	case WebAction:
		if rt.h.Web == nil {
			return unavailable(a)
		}
		if a.Op == WebSearch {
			return rt.h.Web.SearchPlatform(a.Target, a.Query)
		}
		return rt.h.Web.OpenWebsite(a.Target)
	case SystemAction:
		if rt.h.System == nil {
			return unavailable(a)
		}
		return rt.h.System.Control(ctx, string(a.Op))
	default:
		return outcome.Failure(outcome.InvalidAction, "Unsupported action %T", a)
	}
}

func (rt *Router) file(ctx context.Context, a FileAction) outcome.Outcome {
	if a.Op == FileRun {
		if rt.h.Shell == nil {
			return unavailable(a)
		}
		return rt.h.Shell.Execute(ctx, a.Path)
	}
	if rt.h.Files == nil {
		return unavailable(a)
	}
	switch a.Op {
	case FileCreate:
		return rt.h.Files.CreateFile(a.Path, a.Content)
	case FileRead:
		return rt.h.Files.ReadFile(a.Path)
	case FileUpdate:
		return rt.h.Files.UpdateFile(a.Path, a.Content)
	case FileList:
		return rt.h.Files.ListDirectory(a.Path)
	case FileMkdir:
		return rt.h.Files.MakeDirectory(a.Path)
	}
	return outcome.Failure(outcome.InvalidAction, "Unknown file action '%s'", a.Op)
}

func (rt *Router) process(ctx context.Context, a ProcessAction) outcome.Outcome {
	switch a.Op {
	case ProcessOpen:
		if rt.h.Launcher == nil {
			return unavailable(a)
		}
		return rt.h.Launcher.Launch(ctx, a.App)
	case ProcessClose:
		if rt.h.Processes == nil {
			return unavailable(a)
		}
		return rt.h.Processes.Terminate(ctx, a.App)
	case ProcessList:
		if rt.h.Processes == nil {
			return unavailable(a)
		}
		return rt.h.Processes.ListUserApplications(ctx)
	}
	return outcome.Failure(outcome.InvalidAction, "Unknown process action '%s'", a.Op)
}

func unavailable(a Action) outcome.Outcome {
	return outcome.Failure(outcome.ExecutionError, "%s %s is not available", a.Domain(), a.Name())
}
