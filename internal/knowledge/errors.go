package knowledge

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("knowledge document not found")
	ErrDuplicate    = errors.New("knowledge document already exists")
	ErrInvalidQuery = errors.New("invalid knowledge query")
	ErrInvalidInput = errors.New("invalid knowledge document")
)

// MapHTTPStatus maps knowledge domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
