package exports

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/estimator/pkg/storage"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrInvalidSession    = errors.New("invalid session id")
	ErrNoQuotation       = errors.New("no quotation to export")
)

// MapHTTPStatus maps export errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrNoQuotation) {
		return http.StatusBadRequest
	}
	return storage.MapHTTPStatus(err)
}
