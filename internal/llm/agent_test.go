package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/JaimeStill/go-agents/pkg/mock"
	"github.com/JaimeStill/go-agents/pkg/response"

	"github.com/JaimeStill/estimator/internal/llm"
)

// recordingAgent captures what the client sends through the tools protocol.
type recordingAgent struct {
	*mock.MockAgent
	prompt string
	tools  []agent.Tool
}

func (r *recordingAgent) Tools(ctx context.Context, prompt string, tools []agent.Tool, opts ...map[string]any) (*response.ToolsResponse, error) {
	r.prompt = prompt
	r.tools = tools
	return r.MockAgent.Tools(ctx, prompt, tools, opts...)
}

func toolsReply(t *testing.T, body string) *response.ToolsResponse {
	t.Helper()
	resp, err := response.ParseTools([]byte(body))
	if err != nil {
		t.Fatalf("parse tools response: %v", err)
	}
	return resp
}

func clientFor(a agent.Agent, err error) llm.Client {
	factory := func(*gaconfig.AgentConfig) (agent.Agent, error) { return a, err }
	return llm.NewAgentClient(gaconfig.AgentConfig{}, factory, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var supervisorRequest = llm.Request{
	System:   "You are the supervisor.",
	Messages: []llm.Message{{Role: "user", Content: "150 m2 apartment"}},
	Tools: []llm.Tool{
		{
			Name:        "extract_requirements",
			Description: "Extract project requirements",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"note":{"type":"string"}}}`),
		},
		{Name: "fetch_reference_data", Description: "Load the catalogue"},
	},
}

func TestAgentClientToolCall(t *testing.T) {
	a := &recordingAgent{MockAgent: mock.NewToolsAgent("sup", []response.ToolCall{{
		ID:   "call_1",
		Type: "function",
		Function: response.ToolCallFunction{
			Name:      "extract_requirements",
			Arguments: `{"note":"area given"}`,
		},
	}})}

	resp, err := clientFor(a, nil).Complete(context.Background(), supervisorRequest)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.ToolCall == nil || resp.ToolCall.Name != "extract_requirements" {
		t.Fatalf("tool call = %+v", resp.ToolCall)
	}
	if string(resp.ToolCall.Arguments) != `{"note":"area given"}` {
		t.Errorf("arguments = %s", resp.ToolCall.Arguments)
	}

	if len(a.tools) != 2 {
		t.Fatalf("tools sent = %d, want 2", len(a.tools))
	}
	if a.tools[0].Parameters["type"] != "object" || a.tools[0].Parameters["properties"] == nil {
		t.Errorf("schema = %v", a.tools[0].Parameters)
	}
	if a.tools[1].Parameters["type"] != "object" {
		t.Errorf("default schema = %v", a.tools[1].Parameters)
	}
	if !strings.Contains(a.prompt, "[user] 150 m2 apartment") || strings.Contains(a.prompt, `{"tool"`) {
		t.Errorf("prompt = %q", a.prompt)
	}
}

func TestAgentClientToolsText(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{
			name: "direct answer",
			body: `{"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":" Your estimate is ready. "}}]}`,
			want: "Your estimate is ready.",
		},
		{
			name:    "no choices",
			body:    `{"model":"m","choices":[]}`,
			wantErr: llm.ErrEmptyResponse,
		},
		{
			name:    "blank message",
			body:    `{"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`,
			wantErr: llm.ErrEmptyResponse,
		},
		{
			name:    "malformed arguments",
			body:    `{"model":"m","choices":[{"index":0,"message":{"role":"assistant","tool_calls":[{"id":"c","type":"function","function":{"name":"fetch_reference_data","arguments":"{oops"}}]}}]}`,
			wantErr: llm.ErrCall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mock.NewMockAgent(mock.WithToolsResponse(toolsReply(t, tt.body), nil))

			resp, err := clientFor(a, nil).Complete(context.Background(), supervisorRequest)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if resp.ToolCall != nil || resp.Text != tt.want {
				t.Errorf("response = %+v, want text %q", resp, tt.want)
			}
		})
	}
}

func TestAgentClientChat(t *testing.T) {
	a := mock.NewSimpleChatAgent("extract", `{"project_type":"residential"}`)

	resp, err := clientFor(a, nil).Complete(context.Background(), llm.Request{
		System:   "Extract requirements.",
		Messages: []llm.Message{{Role: "user", Content: "apartment"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != `{"project_type":"residential"}` || resp.ToolCall != nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestAgentClientFailures(t *testing.T) {
	boom := errors.New("provider unreachable")

	tests := []struct {
		name    string
		agent   agent.Agent
		factory error
		req     llm.Request
	}{
		{"factory", nil, boom, supervisorRequest},
		{"tools call", mock.NewFailingAgent("f", boom), nil, supervisorRequest},
		{"chat call", mock.NewFailingAgent("f", boom), nil, llm.Request{System: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := clientFor(tt.agent, tt.factory).Complete(context.Background(), tt.req)
			if !errors.Is(err, llm.ErrCall) || !errors.Is(err, boom) {
				t.Errorf("error = %v, want ErrCall wrapping %v", err, boom)
			}
		})
	}
}
