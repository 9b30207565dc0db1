package sessions

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/JaimeStill/estimator/internal/workflow"
	"github.com/JaimeStill/estimator/pkg/pagination"
)

type record struct {
	summary Summary
	data    []byte
}

// MemoryStore keeps encoded checkpoints in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string]record
	pagination pagination.Config
	closed     bool
}

// NewMemory creates an empty in-memory store.
func NewMemory(cfg pagination.Config) *MemoryStore {
	return &MemoryStore{
		records:    make(map[string]record),
		pagination: cfg,
	}
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*workflow.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return decode(id, rec.data)
}

func (m *MemoryStore) Save(ctx context.Context, st *workflow.State) error {
	data, err := encode(st)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.records[st.SessionID] = record{summary: Summarize(st), data: data}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}

	delete(m.records, id)
	return nil
}

func (m *MemoryStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(m.pagination)

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}
	matched := make([]Summary, 0, len(m.records))
	for _, rec := range m.records {
		if !filters.matches(rec.summary) {
			continue
		}
		if page.Search != nil && !strings.Contains(strings.ToLower(rec.summary.ID), strings.ToLower(*page.Search)) {
			continue
		}
		matched = append(matched, rec.summary)
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	start, end := page.Window(len(matched))

	result := pagination.NewPageResult(matched[start:end], len(matched), page.Page, page.PageSize)
	return &result, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
