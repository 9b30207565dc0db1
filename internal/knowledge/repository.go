package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/estimator/pkg/pagination"
	"github.com/JaimeStill/estimator/pkg/query"
	"github.com/JaimeStill/estimator/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a Postgres full-text knowledge repository.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "knowledge"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Search(ctx context.Context, text string, topK int) ([]Snippet, error) {
	terms := TermQuery(text)
	if terms == "" {
		return nil, ErrInvalidQuery
	}
	if topK <= 0 {
		topK = 10
	}

	snippets, err := repository.QueryMany(ctx, r.db, searchSQL, []any{terms, topK}, scanSnippet)
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}

	r.logger.DebugContext(ctx, "knowledge search", "terms", terms, "hits", len(snippets))
	return RelativeScores(snippets), nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Source")

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if strings.TrimSpace(cmd.Title) == "" || strings.TrimSpace(cmd.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}

	q := `
		INSERT INTO knowledge_documents(id, title, source, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, source, content, created_at`

	args := []any{uuid.New(), cmd.Title, cmd.Source, cmd.Content}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDocument)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "knowledge document created", "id", d.ID, "title", d.Title)
	return &d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM knowledge_documents WHERE id = $1",
			id,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "knowledge document deleted", "id", id)
	return nil
}
