// Package prompts stores named instruction overrides for the model-facing
// stages of the estimator. At most one prompt per stage is active; without
// one the built-in instructions apply.
package prompts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxNameLength         = 100
	maxInstructionsLength = 8000
)

type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// Command is the body of a create or a full update.
type Command struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// Normalize trims the text fields and drops a blank description.
func (c *Command) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Instructions = strings.TrimSpace(c.Instructions)
	if c.Description != nil {
		if d := strings.TrimSpace(*c.Description); d != "" {
			c.Description = &d
		} else {
			c.Description = nil
		}
	}
}

// Validate checks a normalized command. Failures wrap ErrInvalidPrompt, or
// ErrInvalidStage for an unknown stage.
func (c Command) Validate() error {
	if _, err := ParseStage(string(c.Stage)); err != nil {
		return err
	}
	switch n := utf8.RuneCountInString(c.Name); {
	case n == 0:
		return fmt.Errorf("%w: name required", ErrInvalidPrompt)
	case n > maxNameLength:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidPrompt, maxNameLength)
	}
	switch n := utf8.RuneCountInString(c.Instructions); {
	case n == 0:
		return fmt.Errorf("%w: instructions required", ErrInvalidPrompt)
	case n > maxInstructionsLength:
		return fmt.Errorf("%w: instructions exceed %d characters", ErrInvalidPrompt, maxInstructionsLength)
	}
	return nil
}

// Source tells where a stage's effective instructions came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceBuiltin  Source = "builtin"
)

// Resolution is what a stage will actually send to the model: its
// instructions, where they came from, and the output contract appended
// after them.
type Resolution struct {
	Stage        Stage      `json:"stage"`
	Source       Source     `json:"source"`
	PromptID     *uuid.UUID `json:"prompt_id,omitempty"`
	Instructions string     `json:"instructions"`
	Spec         string     `json:"spec"`
}

func builtin(stage Stage) *Resolution {
	spec, _ := Spec(stage)
	return &Resolution{
		Stage:        stage,
		Source:       SourceBuiltin,
		Instructions: DefaultInstructions(stage),
		Spec:         spec,
	}
}
