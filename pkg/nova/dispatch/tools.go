package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/jholhewres/nova/pkg/nova/outcome"
)

// Param is one string parameter of a tool.
type Param struct {
	Name        string
	Description string
	Enum        []string
	Required    bool
}

// ToolSpec describes a tool exposed to the reasoning oracle. Every parameter
// is a string.
type ToolSpec struct {
	Name        string
	Description string
	Params      []Param
}

// Schema returns the JSON Schema object for the tool's parameters.
func (t ToolSpec) Schema() map[string]any {
	props := make(map[string]any, len(t.Params))
	required := []string{}
	for _, p := range t.Params {
		prop := map[string]any{
			"type":        "string",
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Tool names.
const (
	ToolFiles  = "file_operations"
	ToolGit    = "git_operations"
	ToolSystem = "system_controller"
)

var systemControllerActions = []string{
	"open", "close", "list", "search", "website",
	"lock", "sleep", "shutdown", "restart", "volume_up", "volume_down", "mute",
}

// Tools returns the tool surface offered to the oracle.
func Tools() []ToolSpec {
	return []ToolSpec{
		{
			Name: ToolFiles,
			Description: "Create, read, update and list files and directories inside the project directory, " +
				"or run an allowlisted shell command (action=run, path=the command line).",
			Params: []Param{
				{Name: "action", Description: "Operation to perform", Enum: opNames(fileOps), Required: true},
				{Name: "path", Description: "Path relative to the project directory, or the command for run"},
				{Name: "content", Description: "File content for create and update"},
			},
		},
		{
			Name:        ToolGit,
			Description: "Run git in the project directory: status, add, commit, push, pull or log.",
			Params: []Param{
				{Name: "action", Description: "Git operation", Enum: []string{"status", "add", "commit", "push", "pull", "log"}, Required: true},
				{Name: "message_or_files", Description: "Commit message for commit, space-separated files for add (default: all)"},
			},
		},
		{
			Name: ToolSystem,
			Description: "Control the computer: open, close or list applications, open websites, " +
				"search a platform (youtube, google, github, ...), lock, sleep, shutdown, restart and volume.",
			Params: []Param{
				{Name: "action", Description: "What to do", Enum: systemControllerActions, Required: true},
				{Name: "target", Description: "Application name, website URL, or search platform"},
				{Name: "query", Description: "Search query for search"},
			},
		},
	}
}

// ToolRequest maps a tool call onto a Request.
func ToolRequest(name string, args map[string]any) (Request, error) {
	action := stringArg(args, "action")
	switch name {
	case ToolFiles:
		return Request{Domain: DomainFile, Action: action, Target: stringArg(args, "path"), Argument: stringArg(args, "content")}, nil
	case ToolGit:
		return Request{Domain: DomainVCS, Action: action, Argument: stringArg(args, "message_or_files")}, nil
	case ToolSystem:
		target, query := stringArg(args, "target"), stringArg(args, "query")
		switch strings.ToLower(strings.TrimSpace(action)) {
		case "open", "close", "list":
			return Request{Domain: DomainProcess, Action: action, Target: target}, nil
		case "website":
			if target == "" {
				target = query
			}
			return Request{Domain: DomainWeb, Action: action, Target: target}, nil
		case "search":
			return Request{Domain: DomainWeb, Action: action, Target: target, Argument: query}, nil
		default:
			return Request{Domain: DomainSystem, Action: action, Target: target}, nil
		}
	default:
		return Request{}, outcome.Errorf(outcome.InvalidAction, "Unknown tool '%s'", name)
	}
}

// CallTool runs a tool call through the router and returns the text the
// oracle sees.
func (rt *Router) CallTool(ctx context.Context, name string, args map[string]any) string {
	req, err := ToolRequest(name, args)
	if err != nil {
		rt.logger.Warn("unknown tool", "tool", name)
		return outcome.FromError(err).String()
	}
	return rt.Handle(ctx, req).String()
}

// stringArg reads a string argument. Non-string values are formatted, and
// absent values are empty.
func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func opNames[T ~string](ops []T) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = string(op)
	}
	return out
}
