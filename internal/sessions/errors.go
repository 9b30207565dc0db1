package sessions

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrClosed   = errors.New("session store closed")
	ErrCorrupt  = errors.New("session checkpoint corrupt")
)

// MapHTTPStatus maps session store errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrClosed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
