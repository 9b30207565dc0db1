package storage

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrEmptyKey   = errors.New("storage key must not be empty")
	ErrInvalidKey = errors.New("storage key contains invalid path segment")

	// ErrUnavailable wraps failures reported by the blob service itself.
	ErrUnavailable = errors.New("blob service unavailable")
)

// MapHTTPStatus maps storage errors onto response codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ValidateKey accepts slash-separated relative keys. Empty, "." and ".."
// segments, backslashes and control characters are rejected so a key can
// never address a blob outside the prefix it was built under.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.ContainsFunc(key, func(r rune) bool { return r == '\\' || unicode.IsControl(r) }) {
		return ErrInvalidKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		switch seg {
		case "", ".", "..":
			return ErrInvalidKey
		}
	}
	return nil
}
