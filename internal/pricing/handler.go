package pricing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/estimator/pkg/handlers"
	"github.com/JaimeStill/estimator/pkg/pagination"
	"github.com/JaimeStill/estimator/pkg/routes"
)

var errInvalidRequest = errors.New("invalid request body")

// Handler provides HTTP endpoints for browsing the pricing catalogue.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a pricing Handler.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "pricing"),
		pagination: pagination,
	}
}

// Routes returns the route group for pricing endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/pricing",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/materials", Handler: h.Materials},
			{Method: "POST", Pattern: "/materials/search", Handler: h.Search},
			{Method: "GET", Pattern: "/labor", Handler: h.Labor},
		},
	}
}

// Materials returns a paginated, filtered page of materials.
func (h *Handler) Materials(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.SearchMaterials(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts pagination and filters as a JSON body.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRequest)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.SearchMaterials(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Labor returns every labor rate.
func (h *Handler) Labor(w http.ResponseWriter, r *http.Request) {
	rates, err := h.sys.ListLaborRates(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rates)
}
