package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/jholhewres/nova/pkg/nova/dispatch"
)

// GeminiOracle uses the Gemini API through the genai SDK.
type GeminiOracle struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// NewGeminiOracle creates a Gemini oracle.
func NewGeminiOracle(ctx context.Context, cfg OracleConfig, logger *slog.Logger) (*GeminiOracle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key not configured. Run 'nova config set-key' or set GOOGLE_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOracleConfig().Model
	}
	return &GeminiOracle{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
		logger:      logger.With("component", "oracle", "provider", ProviderGemini),
	}, nil
}

// Next sends one GenerateContent request.
func (o *GeminiOracle) Next(ctx context.Context, system string, messages []Message, tools []dispatch.ToolSpec) (*Reply, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(o.temperature),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: functionDeclarations(tools)}}
	}

	start := time.Now()
	resp, err := o.client.Models.GenerateContent(ctx, o.model, toContents(messages), config)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	reply := &Reply{}
	for _, fc := range resp.FunctionCalls() {
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
	}
	if len(reply.ToolCalls) == 0 {
		reply.Text = strings.TrimSpace(resp.Text())
	}

	o.logger.Info("generate content done",
		"model", o.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"tool_calls", len(reply.ToolCalls),
	)
	return reply, nil
}

func functionDeclarations(tools []dispatch.ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(t.Params)),
		}
		for _, p := range t.Params {
			schema.Properties[p.Name] = &genai.Schema{
				Type:        genai.TypeString,
				Description: p.Description,
				Enum:        p.Enum,
			}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema,
		})
	}
	return decls
}

// toContents converts the exchange to Gemini contents. Consecutive tool
// results are grouped into one user turn, as the API expects.
func toContents(messages []Message) []*genai.Content {
	var contents []*genai.Content
	var pending []*genai.Part

	flush := func() {
		if len(pending) > 0 {
			contents = append(contents, genai.NewContentFromParts(pending, genai.RoleUser))
			pending = nil
		}
	}

	for _, m := range messages {
		switch m.Role {
		case RoleTool:
			pending = append(pending, genai.NewPartFromFunctionResponse(m.ToolName, map[string]any{"output": m.Content}))
		case RoleAssistant:
			flush()
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, tc.Args))
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		default:
			flush()
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	flush()
	return contents
}
