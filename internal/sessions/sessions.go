// Package sessions checkpoints workflow state between conversation turns.
// Each session is a single record keyed by session id; Save is an atomic
// upsert so the last write wins.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/JaimeStill/estimator/internal/workflow"
	"github.com/JaimeStill/estimator/pkg/pagination"
)

// Store persists workflow state keyed by session id.
type Store interface {
	// Load returns ErrNotFound when no checkpoint exists for id.
	Load(ctx context.Context, id string) (*workflow.State, error)
	Save(ctx context.Context, st *workflow.State) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error)
	Close() error
}

// Summary is the listing view of a checkpointed session.
type Summary struct {
	ID           string          `json:"id"`
	Status       workflow.Status `json:"status"`
	CurrentStage workflow.Stage  `json:"current_stage"`
	TurnCount    int             `json:"turn_count"`
	Done         bool            `json:"done"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Filters narrows session listings.
type Filters struct {
	Status *string `json:"status,omitempty"`
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	return f
}

func (f Filters) matches(s Summary) bool {
	return f.Status == nil || string(s.Status) == *f.Status
}

// Summarize derives the listing view of a state.
func Summarize(st *workflow.State) Summary {
	return Summary{
		ID:           st.SessionID,
		Status:       st.Status,
		CurrentStage: st.CurrentStage,
		TurnCount:    st.TurnCount,
		Done:         st.CalculationComplete() || st.Status.Terminal(),
		CreatedAt:    st.CreatedAt,
		UpdatedAt:    st.UpdatedAt,
	}
}

func encode(st *workflow.State) ([]byte, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", st.SessionID, err)
	}
	return data, nil
}

func decode(id string, data []byte) (*workflow.State, error) {
	var st workflow.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, id, err)
	}
	if st.MaterialSelections == nil {
		st.MaterialSelections = make(map[string]workflow.Selection)
	}
	if st.StageAttempts == nil {
		st.StageAttempts = make(map[workflow.Stage]int)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, id, err)
	}
	return &st, nil
}
