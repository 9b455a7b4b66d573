package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"role": "editor"}`))

	var body struct {
		Role string `json:"role"`
	}
	require.NoError(t, ParseJSON(req, &body))
	assert.Equal(t, "editor", body.Role)
}

func TestParseJSONOrErrorInvalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{role`))
	w := httptest.NewRecorder()

	var body map[string]string
	ok := ParseJSONOrError(w, req, &body)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON")
}

func TestParsePathInt64(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/documents/42", nil)
	req = mux.SetURLVars(req, map[string]string{"documentID": "42"})

	val, err := ParsePathInt64(req, "documentID")
	require.NoError(t, err)
	assert.Equal(t, int64(42), val)

	_, err = ParsePathInt64(req, "missing")
	assert.Error(t, err)

	req = mux.SetURLVars(req, map[string]string{"documentID": "forty-two"})
	_, err = ParsePathInt64(req, "documentID")
	assert.Error(t, err)
}

func TestParseQueryInt64(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/audit?actor_id=7", nil)

	val, err := ParseQueryInt64(req, "actor_id", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), val)

	val, err = ParseQueryInt64(req, "target_id", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), val)

	req = httptest.NewRequest(http.MethodGet, "/audit?actor_id=bogus", nil)
	_, err = ParseQueryInt64(req, "actor_id", 0)
	assert.Error(t, err)
}

func TestRequirePositive(t *testing.T) {
	w := httptest.NewRecorder()
	assert.True(t, RequirePositive(w, 5, "user_id"))

	w = httptest.NewRecorder()
	assert.False(t, RequirePositive(w, 0, "user_id"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "user_id must be positive")
}
