// Package exports writes finished quotations to blob storage as downloadable
// documents and serves them back over HTTP.
package exports

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/estimator/internal/workflow"
	"github.com/JaimeStill/estimator/pkg/storage"
)

// System exports quotations. It satisfies workflow.Exporter.
type System struct {
	store  storage.System
	prefix string
	logger *slog.Logger
}

var _ workflow.Exporter = (*System)(nil)

// New creates an export system writing under prefix in store.
func New(store storage.System, prefix string, logger *slog.Logger) *System {
	return &System{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.With("system", "exports"),
	}
}

// Handler returns the download handler for exported documents.
func (s *System) Handler() *Handler {
	return NewHandler(s.store, s.prefix, s.logger)
}

// Export renders q and uploads it to {prefix}/{session}/{id}.{format},
// returning the storage key.
func (s *System) Export(ctx context.Context, sessionID string, q *workflow.Quotation, format string) (string, error) {
	if q == nil {
		return "", ErrNoQuotation
	}
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}

	data, err := Render(q, format)
	if err != nil {
		return "", err
	}

	key := path.Join(s.prefix, sessionID, uuid.NewString()+"."+format)
	if err := s.store.Upload(ctx, key, bytes.NewReader(data), contentTypes[format]); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	s.logger.InfoContext(ctx, "quotation exported",
		"session_id", sessionID,
		"format", format,
		"key", key,
		"bytes", len(data),
	)
	return key, nil
}
