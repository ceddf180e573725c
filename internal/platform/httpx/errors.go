package httpx

import (
	"context"
	"errors"
	"net/http"
)

// Sentinel errors for the API error taxonomy. Handlers wrap or map
// domain errors onto these before responding.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrDuplicate   = errors.New("duplicate entry")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("backing store unavailable")
)

// RespondError maps an error to an RFC7807 response. Unknown errors
// become 500 with no detail so internals stay out of responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Unavailable", "backing store unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusGatewayTimeout, "Timeout", "request deadline exceeded")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
