package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/JaimeStill/go-agents/pkg/response"

	"github.com/JaimeStill/estimator/pkg/observability"
)

// AgentFactory creates the go-agents agent for one call. agent.New is the
// production factory.
type AgentFactory func(cfg *gaconfig.AgentConfig) (agent.Agent, error)

type agentClient struct {
	cfg      gaconfig.AgentConfig
	newAgent AgentFactory
	recorder observability.Recorder
	logger   *slog.Logger
}

// NewAgentClient returns a Client backed by go-agents. Requests with tools
// use the native tools protocol; the rest use chat. A nil factory means
// agent.New.
func NewAgentClient(cfg gaconfig.AgentConfig, factory AgentFactory, recorder observability.Recorder, logger *slog.Logger) Client {
	if factory == nil {
		factory = agent.New
	}
	return &agentClient{
		cfg:      cfg,
		newAgent: factory,
		recorder: recorder,
		logger:   logger.With("system", "llm"),
	}
}

func (c *agentClient) Complete(ctx context.Context, req Request) (*Response, error) {
	purpose := "extract"
	if len(req.Tools) > 0 {
		purpose = "supervisor"
	}

	start := time.Now()
	resp, err := c.complete(ctx, req)
	if c.recorder != nil {
		c.recorder.RecordModelCall(ctx, purpose, time.Since(start), err)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "model call failed", "purpose", purpose, "error", err)
	}
	return resp, err
}

func (c *agentClient) complete(ctx context.Context, req Request) (*Response, error) {
	a, err := c.newAgent(&c.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create agent: %w", ErrCall, err)
	}

	if len(req.Tools) == 0 {
		out, err := a.Chat(ctx, Render(req))
		if err != nil {
			return nil, fmt.Errorf("%w: chat: %w", ErrCall, err)
		}
		content := strings.TrimSpace(out.Content())
		if content == "" {
			return nil, ErrEmptyResponse
		}
		return &Response{Text: content}, nil
	}

	tools, err := agentTools(req.Tools)
	if err != nil {
		return nil, err
	}

	out, err := a.Tools(ctx, Render(req), tools)
	if err != nil {
		return nil, fmt.Errorf("%w: tools: %w", ErrCall, err)
	}
	return toolsResponse(out)
}

// agentTools maps tool schemas onto go-agents definitions.
func agentTools(tools []Tool) ([]agent.Tool, error) {
	out := make([]agent.Tool, 0, len(tools))
	for _, t := range tools {
		var params map[string]any
		if len(t.Parameters) > 0 {
			if err := json.Unmarshal(t.Parameters, &params); err != nil {
				return nil, fmt.Errorf("tool %s parameters: %w", t.Name, err)
			}
		}
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, agent.Tool{Name: t.Name, Description: t.Description, Parameters: params})
	}
	return out, nil
}

// toolsResponse reads the first tool call of the first choice, or its text
// when the model answered directly.
func toolsResponse(out *response.ToolsResponse) (*Response, error) {
	if out == nil || len(out.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	msg := out.Choices[0].Message

	if len(msg.ToolCalls) > 0 {
		fn := msg.ToolCalls[0].Function
		if fn.Name == "" {
			return nil, fmt.Errorf("%w: tool call without a name", ErrEmptyResponse)
		}
		call := &ToolCall{Name: fn.Name}
		if args := strings.TrimSpace(fn.Arguments); args != "" {
			if !json.Valid([]byte(args)) {
				return nil, fmt.Errorf("%w: tool %s arguments are not JSON", ErrCall, fn.Name)
			}
			call.Arguments = json.RawMessage(args)
		}
		return &Response{ToolCall: call}, nil
	}

	if text := strings.TrimSpace(msg.Content); text != "" {
		return &Response{Text: text}, nil
	}
	return nil, ErrEmptyResponse
}

// Render flattens the system text and conversation into the single prompt
// the agent receives.
func Render(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	if len(req.Messages) > 0 {
		b.WriteString("Conversation:\n")
		for _, m := range req.Messages {
			fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
