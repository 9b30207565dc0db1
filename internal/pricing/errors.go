package pricing

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound    = errors.New("pricing record not found")
	ErrDuplicate   = errors.New("pricing record already exists")
	ErrUnavailable = errors.New("pricing catalogue unavailable")
)

// MapHTTPStatus maps pricing domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
