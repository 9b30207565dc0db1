package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/estimator/pkg/pagination"
)

// System manages prompt overrides and resolves each stage's effective
// instructions.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error)
	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd Command) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error)

	// Delete refuses an active prompt with ErrActive.
	Delete(ctx context.Context, id uuid.UUID) error

	// Activate makes id the stage's only active prompt.
	Activate(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error)

	// Resolve reports the stage's effective instructions.
	Resolve(ctx context.Context, stage Stage) (*Resolution, error)

	// Instructions is Resolve reduced to the instruction text, as the
	// workflow consumes it.
	Instructions(ctx context.Context, stage Stage) (string, error)
}
