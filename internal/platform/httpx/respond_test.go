package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdeck/crewdeck/internal/shared"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestJSONSuccessEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	rec := httptest.NewRecorder()

	JSON(rec, req, http.StatusCreated, map[string]string{"name": "editor"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	assert.Equal(t, "/api/roles", env.Path)
	assert.NotEmpty(t, env.Timestamp)
	assert.Empty(t, env.Error)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		title  string
	}{
		{"not found", shared.NotFound("Role with ID 9 not found"), http.StatusNotFound, "Not Found"},
		{"conflict", shared.Conflict("Role with name 'editor' already exists"), http.StatusConflict, "Conflict"},
		{"forbidden", shared.Forbidden("Access denied"), http.StatusForbidden, "Forbidden"},
		{"unauthorized", shared.Unauthorized("Invalid or expired token"), http.StatusUnauthorized, "Unauthorized"},
		{"invalid credentials", shared.ErrInvalidCredentials, http.StatusUnauthorized, "Unauthorized"},
		{"validation", shared.Invalid("Current password is incorrect"), http.StatusBadRequest, "Bad Request"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/roles/9", nil)
			rec := httptest.NewRecorder()

			RespondError(rec, req, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tc.title, env.Error)
			assert.Equal(t, tc.err.Error(), env.Message)
		})
	}
}

func TestRespondErrorUnknownIsOpaque500(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	rec := httptest.NewRecorder()

	RespondError(rec, req, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Internal Server Error", env.Error)
	assert.Empty(t, env.Message)
}

func TestRespondErrorLocalizedTitle(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/roles/9", nil)
	req.Header.Set("Accept-Language", "vi-VN")
	rec := httptest.NewRecorder()

	RespondError(rec, req, shared.NotFound("Role with ID 9 not found"))

	env := decode(t, rec)
	assert.Equal(t, "Không tìm thấy", env.Error)
}
