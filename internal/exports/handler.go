package exports

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/JaimeStill/estimator/pkg/handlers"
	"github.com/JaimeStill/estimator/pkg/routes"
	"github.com/JaimeStill/estimator/pkg/storage"
)

// Handler serves exported quotation documents.
type Handler struct {
	store  storage.System
	prefix string
	logger *slog.Logger
}

// NewHandler creates a download Handler restricted to keys under prefix.
func NewHandler(store storage.System, prefix string, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		prefix: prefix,
		logger: logger.With("handler", "exports"),
	}
}

// Routes returns the route group for export downloads.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/exports",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.Download},
		},
	}
}

// Download streams the document stored at key as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !strings.HasPrefix(key, h.prefix+"/") {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	ext := strings.TrimPrefix(path.Ext(key), ".")
	if ct, ok := contentTypes[ext]; ok {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
