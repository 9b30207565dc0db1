package workflow

import "errors"

var (
	// ErrPrecondition indicates a stage was invoked in a state its guards forbid.
	// It is a programming contract violation, never a recoverable tool error.
	ErrPrecondition = errors.New("workflow precondition violated")
	// ErrStageComplete indicates a tool targeted a stage that already completed.
	ErrStageComplete = errors.New("stage already complete")
	// ErrNoTransition indicates a subgraph table has no edge for a (node, guard) pair.
	ErrNoTransition = errors.New("no transition")
	// ErrStepLimit indicates a subgraph exceeded its per-run step ceiling.
	ErrStepLimit = errors.New("subgraph step limit exceeded")
	// ErrUnknownTool indicates a tool name missing from the registry.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments indicates tool arguments failed to decode or validate.
	ErrInvalidArguments = errors.New("invalid tool arguments")
	// ErrUnavailable indicates a collaborator required by a tool is not configured.
	ErrUnavailable = errors.New("collaborator unavailable")
	// ErrInvalidState indicates a checkpointed state breaks a structural invariant.
	ErrInvalidState = errors.New("invalid workflow state")
)
