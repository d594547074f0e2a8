// Package agent runs the conversational loop: it asks a reasoning oracle
// what to do, executes the tool calls the oracle requests through the
// dispatch layer and feeds the results back until the oracle answers.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jholhewres/nova/pkg/nova/dispatch"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the in-flight exchange sent to the oracle.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []ToolCall

	// ToolCallID and ToolName are set on tool result messages.
	ToolCallID string
	ToolName   string
}

// ToolCall is a tool invocation requested by the oracle.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Reply is the oracle's answer for one round.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// Oracle decides which tools to call and produces the final reply.
type Oracle interface {
	Next(ctx context.Context, system string, messages []Message, tools []dispatch.ToolSpec) (*Reply, error)
}

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// OracleConfig selects and configures the oracle backend.
type OracleConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "gemini".
	Provider string `yaml:"provider"`

	// Model is the model name passed to the provider.
	Model string `yaml:"model"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates with the provider. Usually resolved from the
	// keyring or environment instead of being stored here.
	APIKey string `yaml:"api_key"`

	// Temperature is the sampling temperature.
	Temperature float64 `yaml:"temperature"`

	// MaxToolRounds caps tool-calling rounds per user message.
	MaxToolRounds int `yaml:"max_tool_rounds"`
}

// DefaultOracleConfig returns the default oracle settings.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		Provider:      ProviderGemini,
		Model:         "gemini-2.5-flash",
		Temperature:   0.7,
		MaxToolRounds: 8,
	}
}

// NewOracle builds the configured backend.
func NewOracle(ctx context.Context, cfg OracleConfig, logger *slog.Logger) (Oracle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "google", "":
		return NewGeminiOracle(ctx, cfg, logger)
	case ProviderOpenAI, "openai-compatible":
		return NewOpenAIOracle(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q (want %s or %s)", cfg.Provider, ProviderOpenAI, ProviderGemini)
	}
}
