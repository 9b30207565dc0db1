package chat

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/estimator/internal/sessions"
)

var (
	ErrEmptyMessage   = errors.New("message must not be empty")
	ErrInvalidSession = errors.New("invalid session id")
)

// MapHTTPStatus maps chat and session errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrEmptyMessage) || errors.Is(err, ErrInvalidSession) {
		return http.StatusBadRequest
	}
	return sessions.MapHTTPStatus(err)
}
