package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/JaimeStill/estimator/pkg/observability"
)

// EventType labels a streamed workflow event.
type EventType string

const (
	EventContent EventType = "content"
	EventStatus  EventType = "status"
	EventDone    EventType = "done"
)

// Event is one streamed update, emitted in the order it occurred.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// StatusPayload accompanies an EventStatus after each tool execution.
type StatusPayload struct {
	Stage  Stage          `json:"stage"`
	Status Status         `json:"status"`
	Tool   ToolInvocation `json:"tool"`
}

// Emitter receives events during a run. A nil Emitter discards them.
type Emitter func(Event)

// Outcome is the result of one router run.
type Outcome struct {
	Reply     string     `json:"reply"`
	Done      bool       `json:"done"`
	Status    Status     `json:"status"`
	Quotation *Quotation `json:"quotation,omitempty"`
}

// Router drives the supervisor/tool loop for one inbound message.
type Router struct {
	rt         *Runtime
	tools      *Registry
	supervisor *Supervisor
}

// NewRouter wires a Router over rt with the standard tool registry.
func NewRouter(rt *Runtime) *Router {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	if rt.Recorder == nil {
		rt.Recorder = observability.Noop()
	}
	if rt.Options == (Options{}) {
		rt.Options = DefaultOptions()
	}
	tools := NewRegistry()
	return &Router{
		rt:         rt,
		tools:      tools,
		supervisor: NewSupervisor(rt, tools),
	}
}

// Tools exposes the registry.
func (r *Router) Tools() *Registry {
	return r.tools
}

// Run loops supervisor decisions and tool executions until the supervisor
// ends the turn or a budget is reached. Tool failures are recorded and the
// loop continues; only a precondition violation stops it with an error status.
func (r *Router) Run(ctx context.Context, st *State, emit Emitter) (Outcome, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	start := time.Now()
	ctx, span := r.rt.Recorder.StartTurn(ctx, st.SessionID)

	first := st.Conversation.Len()
	emitted := first
	flush := func() {
		for ; emitted < st.Conversation.Len(); emitted++ {
			if m := st.Conversation.At(emitted); m.Role == RoleAssistant {
				emit(Event{Type: EventContent, Payload: m.Content})
			}
		}
	}

	calls := 0
	var runErr error

loop:
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if st.TurnCount >= r.rt.Options.MaxTurns && !st.CalculationComplete() && !st.Status.Terminal() {
			r.exhausted(ctx, st)
			flush()
			break
		}

		if i >= r.rt.Options.MaxIterations {
			st.AddError(fmt.Sprintf("iteration limit of %d reached", r.rt.Options.MaxIterations))
			r.rt.Logger.WarnContext(ctx, "iteration limit reached", "session_id", st.SessionID)
			break
		}

		d := r.supervisor.Decide(ctx, st)
		flush()
		if d.End {
			break
		}

		st.TurnCount++
		calls++

		tool, err := r.tools.Lookup(d.Tool)
		if err == nil {
			st.CurrentStage = tool.Stage
			st.attempt(tool.Stage)
			err = r.execute(ctx, tool, st, d)
		}
		flush()

		inv := ToolInvocation{Name: d.Tool, Arguments: d.Arguments}
		switch {
		case err == nil:
			st.Recovering = false
		case errors.Is(err, ErrPrecondition):
			st.Status = StatusError
			st.AddError(err.Error())
			inv.Error = err.Error()
			r.rt.Logger.ErrorContext(ctx, "precondition violated", "session_id", st.SessionID, "tool", d.Tool, "error", err)
			emit(Event{Type: EventStatus, Payload: StatusPayload{Stage: st.CurrentStage, Status: st.Status, Tool: inv}})
			break loop
		default:
			st.Recovering = true
			st.AddError(fmt.Sprintf("%s failed: %v", d.Tool, err))
			inv.Error = err.Error()
			r.rt.Logger.WarnContext(ctx, "tool failed", "session_id", st.SessionID, "tool", d.Tool, "error", err)
		}

		emit(Event{Type: EventStatus, Payload: StatusPayload{Stage: st.CurrentStage, Status: st.Status, Tool: inv}})
	}

	st.UpdatedAt = r.rt.now()

	out := Outcome{
		Reply:     reply(st, first),
		Done:      st.CalculationComplete() || st.Status.Terminal(),
		Status:    st.Status,
		Quotation: st.Quotation,
	}
	emit(Event{Type: EventDone, Payload: out})

	r.rt.Recorder.RecordTurn(ctx, string(st.Status), calls, time.Since(start))
	r.rt.Recorder.EndSpan(span, runErr)
	return out, runErr
}

// execute runs one tool, converting a panic into an error.
func (r *Router) execute(ctx context.Context, tool Tool, st *State, d Decision) (err error) {
	ctx, span := r.rt.Recorder.StartTool(ctx, tool.Name)
	began := time.Now()

	defer func() {
		if p := recover(); p != nil {
			r.rt.Logger.ErrorContext(ctx, "tool panicked",
				"tool", tool.Name,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%s panicked: %v", tool.Name, p)
		}
		r.rt.Recorder.RecordTool(ctx, tool.Name, time.Since(began), err)
		r.rt.Recorder.EndSpan(span, err)
	}()

	return tool.Handler(ctx, r.rt, st, d.Arguments)
}

// exhausted handles the turn ceiling: force the estimate and price it
// without consuming further budget.
func (r *Router) exhausted(ctx context.Context, st *State) {
	r.rt.Logger.WarnContext(ctx, "turn budget exhausted, forcing completion",
		"session_id", st.SessionID,
		"turns", st.TurnCount,
	)

	if !st.Forced {
		force, _ := r.tools.Lookup(ToolForceComplete)
		if err := r.execute(ctx, force, st, Decision{Tool: ToolForceComplete}); err != nil {
			st.Status = StatusError
			st.AddError(fmt.Sprintf("force completion failed: %v", err))
			st.Say(criticalFailureMessage(st.Language), r.rt.now())
			return
		}
	}
	if st.Status.Terminal() {
		return
	}

	calc, _ := r.tools.Lookup(ToolCalculateQuotation)
	if err := r.execute(ctx, calc, st, Decision{Tool: ToolCalculateQuotation}); err != nil {
		st.Status = StatusError
		st.AddError(fmt.Sprintf("calculation after budget exhaustion failed: %v", err))
		st.Say(criticalFailureMessage(st.Language), r.rt.now())
	}
}

func reply(st *State, from int) string {
	var parts []string
	for _, m := range st.Conversation.Since(from) {
		if m.Role == RoleAssistant {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
