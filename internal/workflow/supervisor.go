package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/estimator/internal/llm"
	"github.com/JaimeStill/estimator/internal/prompts"
)

// historyWindow bounds the conversation tail sent to the model.
const historyWindow = 20

// Decision is the supervisor's choice for one router iteration: run Tool,
// or End the turn.
type Decision struct {
	Tool      string
	Arguments json.RawMessage
	End       bool
	Reason    string
}

// Supervisor chooses the next tool. The ordered policy always decides what
// is allowed; a configured model may pick among the allowed tools or answer
// in text.
type Supervisor struct {
	rt    *Runtime
	tools *Registry
}

// NewSupervisor creates a Supervisor over the given registry.
func NewSupervisor(rt *Runtime, tools *Registry) *Supervisor {
	return &Supervisor{rt: rt, tools: tools}
}

// Decide applies the policy to st. Terminal actions mutate st (status,
// errors, assistant text) before ending the turn.
func (s *Supervisor) Decide(ctx context.Context, st *State) Decision {
	st.CurrentStage = StageSupervisor
	plan := NextAction(st, s.rt.Options, s.rt.now())

	switch plan.Action {
	case ActionCall:
		if plan.Tool == ToolForceComplete || s.rt.Model == nil {
			return Decision{Tool: plan.Tool, Arguments: plan.Arguments, Reason: plan.Reason}
		}
		return s.consult(ctx, st, plan)

	case ActionRespond:
		st.ConsumeUserMessage()
		if s.rt.Model == nil {
			st.Say(localize(st.Language,
				"Your estimate is ready above. Ask me to export it as CSV or JSON if you need a file.",
				"التسعيرة جاهزة فوق. لو محتاج ملف قولي صدّر CSV أو JSON.",
			), s.rt.now())
			return Decision{End: true, Reason: plan.Reason}
		}
		return s.consult(ctx, st, plan)

	case ActionFail:
		st.Status = StatusError
		st.AddError(plan.Reason)
		st.Say(criticalFailureMessage(st.Language), s.rt.now())
		s.rt.Logger.ErrorContext(ctx, "workflow failed", "session_id", st.SessionID, "reason", plan.Reason)
		return Decision{End: true, Reason: plan.Reason}

	case ActionTimeout:
		st.Status = StatusTimeout
		st.ConsumeUserMessage()
		st.AddError("session timed out")
		st.Say(timeoutMessage(st.Language), s.rt.now())
		s.rt.Logger.InfoContext(ctx, "session timed out", "session_id", st.SessionID)
		return Decision{End: true, Reason: plan.Reason}

	case ActionFinish:
		if st.Status.Terminal() && st.HasNewUserMessage() {
			st.ConsumeUserMessage()
			st.Say(terminalMessage(st.Status, st.Language), s.rt.now())
		}
	}

	return Decision{End: true, Reason: plan.Reason}
}

func (s *Supervisor) consult(ctx context.Context, st *State, plan Plan) Decision {
	resp, err := s.rt.Model.Complete(ctx, llm.Request{
		System:   s.systemPrompt(ctx, st, plan),
		Messages: history(st),
		Tools:    s.tools.Schemas(plan.Allowed),
	})
	if err != nil {
		st.AddError(fmt.Sprintf("supervisor model unavailable: %v", err))
		st.Say(apologyMessage(st.Language), s.rt.now())
		return Decision{End: true, Reason: "model failure"}
	}

	if resp.ToolCall != nil {
		if slices.Contains(plan.Allowed, resp.ToolCall.Name) {
			return Decision{Tool: resp.ToolCall.Name, Arguments: resp.ToolCall.Arguments, Reason: "model choice"}
		}
		s.rt.Logger.WarnContext(ctx, "model chose a disallowed tool",
			"session_id", st.SessionID,
			"tool", resp.ToolCall.Name,
			"recommended", plan.Tool,
		)
		if plan.Tool != "" {
			return Decision{Tool: plan.Tool, Arguments: plan.Arguments, Reason: plan.Reason}
		}
		return Decision{End: true, Reason: "disallowed tool without fallback"}
	}

	if text := strings.TrimSpace(resp.Text); text != "" {
		st.Say(text, s.rt.now())
	}
	return Decision{End: true, Reason: "model reply"}
}

func (s *Supervisor) systemPrompt(ctx context.Context, st *State, plan Plan) string {
	var b strings.Builder
	b.WriteString(prompts.Compose(prompts.StageSupervisor, s.rt.instructions(ctx, prompts.StageSupervisor)))
	b.WriteString("\n\nSession state:\n")
	fmt.Fprintf(&b, "- session: %s\n", st.SessionID)
	fmt.Fprintf(&b, "- status: %s\n", st.Status)
	fmt.Fprintf(&b, "- language: %s\n", st.Language)
	if gaps := st.Requirements.Gaps(); len(gaps) > 0 && !st.RequirementsComplete {
		fmt.Fprintf(&b, "- missing requirements: %s\n", strings.Join(gaps, ", "))
	}
	if st.Recovering {
		b.WriteString("- the previous tool failed; prefer retrying the recommended tool\n")
	}
	if plan.Tool != "" {
		fmt.Fprintf(&b, "- recommended tool: %s (%s)\n", plan.Tool, plan.Reason)
	}
	return b.String()
}

func history(st *State) []llm.Message {
	msgs := st.Conversation.Messages()
	if len(msgs) > historyWindow {
		msgs = msgs[len(msgs)-historyWindow:]
	}
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}
