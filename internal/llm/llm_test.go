package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JaimeStill/estimator/internal/llm"
	"github.com/JaimeStill/estimator/pkg/formatting"
)

type scripted struct {
	text string
	err  error
	got  llm.Request
}

func (s *scripted) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Text: s.text}, nil
}

type extraction struct {
	ProjectType string   `json:"project_type"`
	Area        *float64 `json:"total_area_sqm"`
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		err     error
		wantErr error
		want    string
	}{
		{name: "raw json", text: `{"project_type":"residential","total_area_sqm":150}`, want: "residential"},
		{name: "fenced json", text: "```json\n{\"project_type\":\"factory\"}\n```", want: "factory"},
		{name: "prose", text: "I could not tell.", wantErr: formatting.ErrParseFailed},
		{name: "empty", text: "", wantErr: llm.ErrEmptyResponse},
		{name: "call failure", err: llm.ErrCall, wantErr: llm.ErrCall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scripted{text: tt.text, err: tt.err}
			got, err := llm.Extract[extraction](context.Background(), client, "sys", "prompt")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ProjectType != tt.want {
				t.Errorf("project type = %q, want %q", got.ProjectType, tt.want)
			}
			if client.got.System != "sys" || len(client.got.Messages) != 1 {
				t.Errorf("request not forwarded: %+v", client.got)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		req  llm.Request
		want string
	}{
		{
			name: "system and conversation",
			req: llm.Request{
				System: "You are the supervisor.",
				Messages: []llm.Message{
					{Role: "user", Content: "150 m2 apartment"},
					{Role: "assistant", Content: "How many bedrooms?"},
				},
			},
			want: "You are the supervisor.\n\nConversation:\n[user] 150 m2 apartment\n[assistant] How many bedrooms?",
		},
		{
			name: "system only",
			req:  llm.Request{System: "Extract requirements."},
			want: "Extract requirements.",
		},
		{
			name: "tools stay out of the prompt",
			req: llm.Request{
				Messages: []llm.Message{{Role: "user", Content: "hi"}},
				Tools:    []llm.Tool{{Name: "extract_requirements", Description: "Extract project requirements"}},
			},
			want: "Conversation:\n[user] hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := llm.Render(tt.req); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}
