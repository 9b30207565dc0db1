package workflow

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolInvocation records a tool the workflow ran while producing a message.
type ToolInvocation struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Message is a single chat turn.
type Message struct {
	Role    Role             `json:"role"`
	Content string           `json:"content"`
	Tools   []ToolInvocation `json:"tool_invocations,omitempty"`
	At      time.Time        `json:"at"`
}

// Conversation is an append-only ordered log of messages. Append is the only
// mutation; accessors return copies so callers cannot rewrite history.
type Conversation struct {
	messages []Message
}

// Append adds a message to the end of the log.
func (c *Conversation) Append(m Message) {
	if m.Tools != nil {
		m.Tools = append([]ToolInvocation(nil), m.Tools...)
	}
	c.messages = append(c.messages, m)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// At returns the message at index i.
func (c *Conversation) At(i int) Message {
	return c.messages[i]
}

// Last returns the final message, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastUserIndex returns the index of the most recent user message, or -1.
func (c *Conversation) LastUserIndex() int {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleUser {
			return i
		}
	}
	return -1
}

// Since returns copies of the messages at index i and later.
func (c *Conversation) Since(i int) []Message {
	if i < 0 {
		i = 0
	}
	if i >= len(c.messages) {
		return nil
	}
	out := make([]Message, len(c.messages)-i)
	copy(out, c.messages[i:])
	return out
}

func (c Conversation) MarshalJSON() ([]byte, error) {
	if c.messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.messages)
}

func (c *Conversation) UnmarshalJSON(data []byte) error {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return err
	}
	c.messages = msgs
	return nil
}
