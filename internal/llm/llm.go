// Package llm defines the language-model boundary used by the workflow and
// an adapter that drives it through go-agents.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JaimeStill/estimator/pkg/formatting"
)

var (
	// ErrEmptyResponse indicates the model returned no usable content.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrCall indicates the model call itself failed.
	ErrCall = errors.New("model call failed")
)

// Message is one prior turn passed to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a callable the model may select.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is the model's request to run a tool.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Request is a single completion request.
type Request struct {
	System   string
	Messages []Message
	Tools    []Tool
}

// Response carries either a tool call or text.
type Response struct {
	ToolCall *ToolCall
	Text     string
}

// Client completes requests against a language model.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Extract asks the model for a JSON object shaped like T and decodes it.
func Extract[T any](ctx context.Context, c Client, system, prompt string) (T, error) {
	var zero T

	resp, err := c.Complete(ctx, Request{
		System:   system,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return zero, err
	}
	if resp == nil || resp.Text == "" {
		return zero, ErrEmptyResponse
	}

	parsed, err := formatting.Parse[T](resp.Text)
	if err != nil {
		return zero, fmt.Errorf("extract: %w", err)
	}
	return parsed, nil
}
