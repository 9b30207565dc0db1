package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/estimator/internal/workflow"
	"github.com/JaimeStill/estimator/pkg/pagination"
	"github.com/JaimeStill/estimator/pkg/query"
	"github.com/JaimeStill/estimator/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "sessions", "s").
	Project("id", "ID").
	Project("status", "Status").
	Project("current_stage", "CurrentStage").
	Project("turn_count", "TurnCount").
	Project("done", "Done").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

// listOrder puts recently touched sessions first, with id breaking ties.
var listOrder = []query.SortField{
	{Field: "UpdatedAt", Descending: true},
	{Field: "ID"},
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// NewPostgres creates a store over the sessions table. The database
// connection is owned by the caller.
func NewPostgres(db *sql.DB, logger *slog.Logger, pagination pagination.Config) Store {
	return &repo{
		db:         db,
		logger:     logger.With("system", "sessions"),
		pagination: pagination,
	}
}

func (r *repo) Load(ctx context.Context, id string) (*workflow.State, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT state FROM public.sessions WHERE id = $1`, id).Scan(&data)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, nil)
	}
	return decode(id, data)
}

func (r *repo) Save(ctx context.Context, st *workflow.State) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	sum := Summarize(st)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO public.sessions (id, status, current_stage, turn_count, done, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			current_stage = EXCLUDED.current_stage,
			turn_count = EXCLUDED.turn_count,
			done = EXCLUDED.done,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`,
		sum.ID, string(sum.Status), string(sum.CurrentStage), sum.TurnCount, sum.Done, string(data),
		sum.CreatedAt, sum.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	r.logger.DebugContext(ctx, "session saved", "id", sum.ID, "status", sum.Status, "turn", sum.TurnCount)
	return nil
}

func (r *repo) Delete(ctx context.Context, id string) error {
	err := repository.ExecExpectOne(ctx, r.db, `DELETE FROM public.sessions WHERE id = $1`, id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, nil)
	}

	r.logger.InfoContext(ctx, "session deleted", "id", id)
	return nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, listOrder...).
		WhereSearch(page.Search, "ID").
		WhereEquals("Status", filters.Status)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return result, nil
}

// Close is a no-op; the shared connection pool is closed by the database system.
func (r *repo) Close() error {
	return nil
}

func scanSummary(s repository.Scanner) (Summary, error) {
	var sum Summary
	err := s.Scan(
		&sum.ID,
		&sum.Status,
		&sum.CurrentStage,
		&sum.TurnCount,
		&sum.Done,
		&sum.CreatedAt,
		&sum.UpdatedAt,
	)
	return sum, err
}
