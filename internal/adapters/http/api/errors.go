package api

import (
	"errors"
	"net/http"

	service "github.com/okian/outwit/internal/app"
	"github.com/okian/outwit/internal/domain/picks"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// Error codes returned in the body of failed requests.
const (
	codeValidationFailed   = "validation_failed"
	codeBadRequest         = "bad_request"
	codeNotFound           = "not_found"
	codeNotScored          = "not_scored"
	codeBackpressure       = "backpressure"
	codeStorageUnavailable = "storage_unavailable"
)

// writeServiceError maps a service error to its status and code. Errors of
// no known kind come from storage and are reported as 503.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *picks.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: codeValidationFailed, Field: verr.Field, Message: verr.Error()})
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidQuestion),
		errors.Is(err, service.ErrInvalidEvent),
		errors.Is(err, service.ErrInvalidJob),
		errors.Is(err, service.ErrUnknownCastaway):
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
	case errors.Is(err, service.ErrUnknownPlayer), errors.Is(err, service.ErrUnknownEpisode):
		writeError(w, http.StatusNotFound, codeNotFound, err)
	case errors.Is(err, service.ErrNotScored):
		writeError(w, http.StatusNotFound, codeNotScored, err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, codeBackpressure, err)
	default:
		writeError(w, http.StatusServiceUnavailable, codeStorageUnavailable, err)
	}
}
