package observability

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/estimator/pkg/handlers"
	"github.com/JaimeStill/estimator/pkg/routes"
)

// Handler exposes the metrics snapshot over HTTP.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler bound to the telemetry system.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "observability"),
	}
}

// Routes returns the route group for the metrics endpoint.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/metrics",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Snapshot},
		},
	}
}

// Snapshot handles GET /metrics.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	measurements, err := h.sys.Snapshot(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrDisabled) {
			status = http.StatusNotFound
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, measurements)
}
