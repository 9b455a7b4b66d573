package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vellum-app/vellum/pkg/access"
	"github.com/vellum-app/vellum/pkg/documents"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"message": "success"}

	err := WriteJSON(w, http.StatusOK, data)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "success")
}

func TestWriteErrorMessage(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorMessage(w, http.StatusNotFound, "document not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "document not found")
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteCreated(w, map[string]int64{"id": 123})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "123")
}

func TestWriteNoContent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteNoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid role", access.ErrInvalidRole, http.StatusBadRequest},
		{"forbidden", access.ErrForbidden, http.StatusForbidden},
		{"nothing to remove", access.ErrNothingToRemove, http.StatusNotFound},
		{"document not found", documents.ErrNotFound, http.StatusNotFound},
		{"not eligible", access.ErrNotEligible, http.StatusUnprocessableEntity},
		{"last owner", access.ErrLastOwner, http.StatusConflict},
		{"storage unavailable", access.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{"wrapped sentinel", fmt.Errorf("change role: %w", access.ErrLastOwner), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}

func TestWriteDomainErrorHidesInternals(t *testing.T) {
	w := httptest.NewRecorder()

	WriteDomainError(w, errors.New("pq: deadlock detected"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadlock")
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestWriteDomainErrorMapped(t *testing.T) {
	w := httptest.NewRecorder()

	WriteDomainError(w, access.ErrLastOwner)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "at least one owner")
}
