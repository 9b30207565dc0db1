package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JaimeStill/estimator/internal/workflow"
	"github.com/JaimeStill/estimator/pkg/pagination"
	"github.com/JaimeStill/estimator/pkg/query"
	"github.com/JaimeStill/estimator/pkg/repository"
)

// SQLiteStore persists checkpoints to an embedded SQLite database.
// Suitable for a single process; use ":memory:" in tests.
type SQLiteStore struct {
	db         *sql.DB
	pagination pagination.Config
	mu         sync.RWMutex
	closed     bool
}

// NewSQLite opens (or creates) the database at path and ensures the schema.
func NewSQLite(path string, cfg pagination.Config) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// a second pooled connection to ":memory:" would see an empty database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			current_stage TEXT NOT NULL,
			turn_count INTEGER NOT NULL,
			done INTEGER NOT NULL,
			state BLOB NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sessions_updated_at
		ON sessions(updated_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db, pagination: cfg}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*workflow.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if err = repository.MapError(err, ErrNotFound, nil); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decode(id, data)
}

func (s *SQLiteStore) Save(ctx context.Context, st *workflow.State) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	sum := Summarize(st)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, status, current_stage, turn_count, done, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			current_stage = excluded.current_stage,
			turn_count = excluded.turn_count,
			done = excluded.done,
			state = excluded.state,
			updated_at = excluded.updated_at
	`,
		sum.ID, string(sum.Status), string(sum.CurrentStage), sum.TurnCount, sum.Done, data,
		formatTime(sum.CreatedAt), formatTime(sum.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	err := repository.ExecExpectOne(ctx, s.db, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		if err = repository.MapError(err, ErrNotFound, nil); errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(s.pagination)

	qb := query.
		NewBuilder(sqliteProjection, listOrder...).
		Dialect(query.SQLite).
		WhereSearch(page.Search, "ID").
		WhereEquals("Status", filters.Status)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	result, err := repository.QueryPage(ctx, s.db, qb, page, scanSQLiteSummary)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return result, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// fixed-width UTC text keeps lexical order equal to time order
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

var sqliteProjection = query.
	NewProjectionMap("", "sessions", "s").
	Project("id", "ID").
	Project("status", "Status").
	Project("current_stage", "CurrentStage").
	Project("turn_count", "TurnCount").
	Project("done", "Done").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

func scanSQLiteSummary(sc repository.Scanner) (Summary, error) {
	var (
		sum              Summary
		created, updated string
	)
	if err := sc.Scan(&sum.ID, &sum.Status, &sum.CurrentStage, &sum.TurnCount, &sum.Done, &created, &updated); err != nil {
		return Summary{}, err
	}

	var err error
	if sum.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Summary{}, fmt.Errorf("%w: created_at %q", ErrCorrupt, created)
	}
	if sum.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return Summary{}, fmt.Errorf("%w: updated_at %q", ErrCorrupt, updated)
	}
	return sum, nil
}
