package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jholhewres/nova/pkg/nova/dispatch"
	"github.com/jholhewres/nova/pkg/nova/memory"
)

// ToolCaller executes a named tool and returns its rendered outcome.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) string
}

// Options configures an Agent.
type Options struct {
	Name          string
	UserName      string
	Platform      string
	ProjectRoot   string
	MaxToolRounds int
}

// Agent drives one conversation.
type Agent struct {
	opts    Options
	oracle  Oracle
	tools   ToolCaller
	specs   []dispatch.ToolSpec
	history *memory.History
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an agent. history may be shared with other sessions; tool
// specs default to dispatch.Tools().
func New(opts Options, oracle Oracle, tools ToolCaller, history *memory.History, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Name == "" {
		opts.Name = "Nova"
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultOracleConfig().MaxToolRounds
	}
	if history == nil {
		history = memory.NewHistory(memory.DefaultMaxEntries)
	}
	return &Agent{
		opts:    opts,
		oracle:  oracle,
		tools:   tools,
		specs:   dispatch.Tools(),
		history: history,
		logger:  logger.With("component", "agent"),
		now:     time.Now,
	}
}

// Name returns the assistant's display name.
func (a *Agent) Name() string { return a.opts.Name }

// History returns the conversation history.
func (a *Agent) History() *memory.History { return a.history }

// Chat handles one user message and returns the assistant's reply. Tool
// outcomes and both sides of the exchange are appended to the history.
func (a *Agent) Chat(ctx context.Context, input string) (string, error) {
	system := BuildSystemPrompt(PromptInfo{
		Name:        a.opts.Name,
		UserName:    a.opts.UserName,
		Platform:    a.opts.Platform,
		ProjectRoot: a.opts.ProjectRoot,
		Now:         a.now(),
		History:     a.history.Render(a.opts.Name),
	})

	a.history.Append(memory.RoleUser, input)
	messages := []Message{{Role: RoleUser, Content: input}}

	for round := 0; round < a.opts.MaxToolRounds; round++ {
		reply, err := a.oracle.Next(ctx, system, messages, a.specs)
		if err != nil {
			a.logger.Error("oracle failed", "round", round, "error", err)
			return "", fmt.Errorf("asking oracle: %w", err)
		}

		if len(reply.ToolCalls) == 0 {
			text := reply.Text
			if text == "" {
				text = "Done."
			}
			a.history.Append(memory.RoleAssistant, text)
			return text, nil
		}

		messages = append(messages, Message{Role: RoleAssistant, Content: reply.Text, ToolCalls: reply.ToolCalls})
		for _, call := range reply.ToolCalls {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			a.logger.Info("tool call", "tool", call.Name, "args", call.Args, "round", round)
			result := a.tools.CallTool(ctx, call.Name, call.Args)
			a.history.Append(memory.RoleTool, result)
			messages = append(messages, Message{
				Role:       RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	a.logger.Warn("tool round limit reached", "max", a.opts.MaxToolRounds)
	text := fmt.Sprintf("I stopped after %d rounds of actions without finishing. Please try a more specific request.", a.opts.MaxToolRounds)
	a.history.Append(memory.RoleAssistant, text)
	return text, nil
}
