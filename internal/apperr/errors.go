// Package apperr holds the error kinds shared by the service and HTTP layers.
// Services wrap one of these with fmt.Errorf("%w: ...") and handlers map the
// kind to a status with Status.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrBadRequest           = errors.New("bad request")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrResourceExhausted    = errors.New("resource exhausted")
)

// Status maps an error chain to the HTTP status sent to the client.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrUnsupportedMediaType),
		errors.Is(err, ErrPayloadTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether err's message may be shown to the client as is.
// Anything that maps to a 5xx is hidden behind a generic message.
func Public(err error) bool {
	return Status(err) < http.StatusInternalServerError
}
