package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/estimator/internal/sessions"
	"github.com/JaimeStill/estimator/internal/workflow"
	"github.com/JaimeStill/estimator/pkg/handlers"
)

const driverFailure = `password authentication failed for user "estimator" at 10.0.0.5:5432`

type brokenStore struct {
	sessions.Store
}

func (brokenStore) Save(context.Context, *workflow.State) error {
	return errors.New(driverFailure)
}

func TestHandlerHidesServerErrors(t *testing.T) {
	h := newSystem(brokenStore{sessions.NewMemory(pageCfg)}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"session_id": "s1", "message": "hello"}`))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body handlers.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Error != "internal server error" {
		t.Errorf("error = %q, want the generic message", body.Error)
	}
}

func TestHandlerStreamHidesServerErrors(t *testing.T) {
	h := newSystem(brokenStore{sessions.NewMemory(pageCfg)}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(`{"session_id": "s1", "message": "hello"}`))
	rec := httptest.NewRecorder()
	h.Stream(rec, req)

	out := rec.Body.String()
	if !strings.Contains(out, "event: error\ndata: {\"error\":\"internal server error\"}") {
		t.Errorf("stream missing generic error event:\n%s", out)
	}
	if strings.Contains(out, "10.0.0.5") {
		t.Errorf("stream leaked driver detail:\n%s", out)
	}
}

func TestHandlerKeepsClientErrors(t *testing.T) {
	h := newSystem(sessions.NewMemory(pageCfg)).Handler()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message": "   "}`))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "empty") {
		t.Errorf("body = %s, want the validation message", rec.Body.String())
	}
}
