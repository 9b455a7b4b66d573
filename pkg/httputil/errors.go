package httputil

import (
	"errors"
	"net/http"

	"github.com/vellum-app/vellum/pkg/access"
	"github.com/vellum-app/vellum/pkg/documents"
)

// StatusForError maps domain errors onto HTTP status codes. Unrecognized
// errors map to 500.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, access.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, access.ErrNothingToRemove):
		return http.StatusNotFound
	case errors.Is(err, documents.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, access.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, access.ErrLastOwner):
		return http.StatusConflict
	case errors.Is(err, access.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError writes the JSON error response for a domain error,
// hiding internals behind a generic message for unmapped errors.
func WriteDomainError(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		WriteErrorMessage(w, status, "internal server error")
		return
	}
	WriteError(w, status, err)
}
