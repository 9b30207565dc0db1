package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/estimator/pkg/pagination"
	"github.com/JaimeStill/estimator/pkg/query"
	"github.com/JaimeStill/estimator/pkg/repository"
)

const returning = "RETURNING id, name, stage, instructions, description, active"

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a PostgreSQL-backed prompt System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "prompts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Prompt], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanPrompt)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return r.one(ctx, r.db, id)
}

func (r *repo) one(ctx context.Context, q repository.Querier, id uuid.UUID) (*Prompt, error) {
	sqlText, args := query.NewBuilder(projection).BuildSingle("ID", id)
	p, err := repository.QueryOne(ctx, q, sqlText, args, scanPrompt)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Resolve(ctx context.Context, stage Stage) (*Resolution, error) {
	if _, err := ParseStage(string(stage)); err != nil {
		return nil, err
	}

	var (
		id   uuid.UUID
		text string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, instructions FROM public.prompts WHERE stage = $1 AND active",
		stage,
	).Scan(&id, &text)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return builtin(stage), nil
	case err != nil:
		return nil, fmt.Errorf("query active prompt: %w", err)
	}

	res := builtin(stage)
	res.Source = SourceOverride
	res.PromptID = &id
	res.Instructions = text
	return res, nil
}

func (r *repo) Instructions(ctx context.Context, stage Stage) (string, error) {
	res, err := r.Resolve(ctx, stage)
	if err != nil {
		return "", err
	}
	return res.Instructions, nil
}

func (r *repo) Create(ctx context.Context, cmd Command) (*Prompt, error) {
	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := repository.QueryOne(ctx, r.db, `
		INSERT INTO public.prompts (name, stage, instructions, description)
		VALUES ($1, $2, $3, $4) `+returning,
		[]any{cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description},
		scanPrompt,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt created", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}

// Update rewrites every field. Moving an active prompt to another stage
// deactivates it so the target stage keeps a single active prompt.
func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error) {
	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := repository.QueryOne(ctx, r.db, `
		UPDATE public.prompts
		SET name = $1,
			stage = $2,
			instructions = $3,
			description = $4,
			active = active AND stage = $2
		WHERE id = $5 `+returning,
		[]any{cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description, id},
		scanPrompt,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt updated", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		p, err := r.one(ctx, tx, id)
		if err != nil {
			return struct{}{}, err
		}
		if p.Active {
			return struct{}{}, ErrActive
		}
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM public.prompts WHERE id = $1", id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt deleted", "id", id)
	return nil
}

func (r *repo) Activate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		target, err := r.one(ctx, tx, id)
		if err != nil {
			return Prompt{}, err
		}
		if target.Active {
			return *target, nil
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE public.prompts SET active = false WHERE stage = $1 AND active",
			target.Stage,
		); err != nil {
			return Prompt{}, fmt.Errorf("deactivate current: %w", err)
		}

		return repository.QueryOne(ctx, tx,
			"UPDATE public.prompts SET active = true WHERE id = $1 "+returning,
			[]any{id}, scanPrompt,
		)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt activated", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}

func (r *repo) Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	p, err := repository.QueryOne(ctx, r.db,
		"UPDATE public.prompts SET active = false WHERE id = $1 "+returning,
		[]any{id}, scanPrompt,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt deactivated", "id", p.ID, "stage", p.Stage)
	return &p, nil
}
