package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/estimator/internal/sessions"
	"github.com/JaimeStill/estimator/internal/workflow"
	"github.com/JaimeStill/estimator/pkg/handlers"
	"github.com/JaimeStill/estimator/pkg/pagination"
	"github.com/JaimeStill/estimator/pkg/routes"
)

var errInvalidRequest = errors.New("invalid request body")

// Handler provides HTTP endpoints for conversations and their sessions.
type Handler struct {
	sys            System
	logger         *slog.Logger
	pagination     pagination.Config
	maxMessageSize int64
}

// NewHandler creates a chat Handler.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config, maxMessageSize int64) *Handler {
	return &Handler{
		sys:            sys,
		logger:         logger.With("handler", "chat"),
		pagination:     pagination,
		maxMessageSize: maxMessageSize,
	}
}

// Routes returns the chat and session route groups.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/chat",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.Chat},
					{Method: "POST", Pattern: "/stream", Handler: h.Stream},
				},
			},
			{
				Prefix: "/sessions",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.List},
					{Method: "GET", Pattern: "/{id}", Handler: h.Find},
					{Method: "DELETE", Pattern: "/{id}", Handler: h.Reset},
				},
			},
		},
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Request, bool) {
	var req Request
	if h.maxMessageSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxMessageSize)
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, err)
		} else {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRequest)
		}
		return req, false
	}
	if req.SessionID != "" {
		if err := ValidateSessionID(req.SessionID); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return req, false
		}
	}
	return req, true
}

// Chat processes one message and returns the turn result.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.sys.ProcessTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Stream processes one message, writing workflow events as server-sent events.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrEmptyMessage)
		return
	}

	stream, err := handlers.NewEventStream(w)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	emit := func(e workflow.Event) {
		if err := stream.Send(string(e.Type), e.Payload); err != nil {
			h.logger.WarnContext(r.Context(), "stream write failed", "event", e.Type, "error", err)
		}
	}

	if _, err := h.sys.Stream(r.Context(), req.SessionID, req.Message, emit); err != nil {
		status := MapHTTPStatus(err)
		h.logger.ErrorContext(r.Context(), "stream turn failed", "status", status, "error", err)
		stream.Send("error", handlers.ErrorResponse{Error: handlers.Message(status, err)})
	}
}

// List returns a paginated page of session summaries.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := sessions.FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns the checkpointed state of a session.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	st, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, st)
}

// Reset deletes a session so the next message starts over.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Reset(r.Context(), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
