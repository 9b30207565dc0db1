// Package chat is the session orchestrator: it resolves a session's
// checkpoint, appends the inbound message, runs the workflow router, and
// saves the result, one turn at a time per session.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/estimator/internal/sessions"
	"github.com/JaimeStill/estimator/internal/workflow"
	"github.com/JaimeStill/estimator/pkg/pagination"
)

// EventSession is streamed first and carries the resolved session id.
const EventSession workflow.EventType = "session"

const maxSessionIDLength = 128

// TurnResult is the response to one user message.
type TurnResult struct {
	SessionID string              `json:"session_id"`
	Reply     string              `json:"reply"`
	Done      bool                `json:"done"`
	Status    workflow.Status     `json:"status"`
	Quotation *workflow.Quotation `json:"quotation,omitempty"`
}

// Request is the inbound chat message. An empty SessionID starts a new session.
type Request struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// System defines the public contract for the session orchestrator.
type System interface {
	Handler() *Handler

	ProcessTurn(ctx context.Context, sessionID, message string) (*TurnResult, error)
	// Stream behaves like ProcessTurn and also reports each workflow event
	// to emit in the order it occurred.
	Stream(ctx context.Context, sessionID, message string, emit workflow.Emitter) (*TurnResult, error)

	Find(ctx context.Context, sessionID string) (*workflow.State, error)
	List(ctx context.Context, page pagination.PageRequest, filters sessions.Filters) (*pagination.PageResult[sessions.Summary], error)
	Reset(ctx context.Context, sessionID string) error
}

// Config holds the orchestrator dependencies.
type Config struct {
	Router         *workflow.Router
	Store          sessions.Store
	Logger         *slog.Logger
	Pagination     pagination.Config
	MaxMessageSize int64
	Now            func() time.Time
}

type orchestrator struct {
	router         *workflow.Router
	store          sessions.Store
	locks          *keyedMutex
	logger         *slog.Logger
	pagination     pagination.Config
	maxMessageSize int64
	now            func() time.Time
}

// New creates the session orchestrator.
func New(cfg Config) System {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &orchestrator{
		router:         cfg.Router,
		store:          cfg.Store,
		locks:          newKeyedMutex(),
		logger:         cfg.Logger.With("system", "chat"),
		pagination:     cfg.Pagination,
		maxMessageSize: cfg.MaxMessageSize,
		now:            now,
	}
}

func (o *orchestrator) Handler() *Handler {
	return NewHandler(o, o.logger, o.pagination, o.maxMessageSize)
}

func (o *orchestrator) ProcessTurn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	return o.Stream(ctx, sessionID, message, nil)
}

func (o *orchestrator) Stream(ctx context.Context, sessionID, message string, emit workflow.Emitter) (*TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if emit == nil {
		emit = func(workflow.Event) {}
	}

	unlock := o.locks.Lock(sessionID)
	defer unlock()

	st, err := o.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	emit(workflow.Event{Type: EventSession, Payload: map[string]string{"session_id": sessionID}})

	st.AddUserMessage(message, o.now())
	out, runErr := o.router.Run(ctx, st, emit)

	// the turn is checkpointed even when the caller went away mid-run
	if err := o.store.Save(context.WithoutCancel(ctx), st); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sessionID, err)
	}

	if runErr != nil {
		o.logger.WarnContext(ctx, "turn interrupted", "session_id", sessionID, "error", runErr)
		return nil, runErr
	}

	o.logger.InfoContext(ctx, "turn processed",
		"session_id", sessionID,
		"status", out.Status,
		"stage", st.CurrentStage,
		"turn_count", st.TurnCount,
		"done", out.Done,
	)

	return &TurnResult{
		SessionID: sessionID,
		Reply:     out.Reply,
		Done:      out.Done,
		Status:    out.Status,
		Quotation: out.Quotation,
	}, nil
}

func (o *orchestrator) resolve(ctx context.Context, sessionID string) (*workflow.State, error) {
	st, err := o.store.Load(ctx, sessionID)
	if errors.Is(err, sessions.ErrNotFound) {
		o.logger.InfoContext(ctx, "session started", "session_id", sessionID)
		return workflow.NewState(sessionID, o.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return st, nil
}

func (o *orchestrator) Find(ctx context.Context, sessionID string) (*workflow.State, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	return o.store.Load(ctx, sessionID)
}

func (o *orchestrator) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters sessions.Filters,
) (*pagination.PageResult[sessions.Summary], error) {
	return o.store.List(ctx, page, filters)
}

func (o *orchestrator) Reset(ctx context.Context, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}

	unlock := o.locks.Lock(sessionID)
	defer unlock()

	if err := o.store.Delete(ctx, sessionID); err != nil {
		return err
	}

	o.logger.InfoContext(ctx, "session reset", "session_id", sessionID)
	return nil
}

// ValidateSessionID accepts ids of letters, digits, '-' and '_' up to 128
// characters.
func ValidateSessionID(id string) error {
	if id == "" || len(id) > maxSessionIDLength {
		return fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSession, id)
		}
	}
	return nil
}
