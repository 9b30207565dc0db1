package pricing

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/estimator/pkg/pagination"
	"github.com/JaimeStill/estimator/pkg/query"
	"github.com/JaimeStill/estimator/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a Postgres-backed pricing repository.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "pricing"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) ListMaterials(ctx context.Context) ([]Material, error) {
	q, args := query.NewBuilder(materialProjection, materialSort).BuildAll()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanMaterial)
	if err != nil {
		return nil, fmt.Errorf("%w: query materials: %w", ErrUnavailable, err)
	}
	return items, nil
}

func (r *repo) ListLaborRates(ctx context.Context) ([]LaborRate, error) {
	q, args := query.NewBuilder(laborProjection, laborSort).BuildAll()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanLaborRate)
	if err != nil {
		return nil, fmt.Errorf("%w: query labor rates: %w", ErrUnavailable, err)
	}
	return items, nil
}

func (r *repo) SearchMaterials(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Material], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(materialProjection, materialSort).
		WhereSearch(page.Search, "Name", "Category")

	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanMaterial)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return result, nil
}
