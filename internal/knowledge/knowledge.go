// Package knowledge stores reference documents on Egyptian finishing
// standards and building codes and ranks them against free-text queries.
package knowledge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/estimator/pkg/pagination"
)

// Snippet is one ranked search hit. Score is relative to the best hit of
// the same search, in [0, 1].
type Snippet struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

// Document is a stored reference text.
type Document struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommand holds the fields for adding a document.
type CreateCommand struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

// System defines the public contract for the knowledge domain.
type System interface {
	Handler() *Handler

	Search(ctx context.Context, query string, topK int) ([]Snippet, error)

	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Document], error)
	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
