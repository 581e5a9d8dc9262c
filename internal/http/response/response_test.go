package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, http.StatusCreated, "created", map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(201), body["statusCode"])
	assert.Equal(t, "SUCCESS", body["status"])
	assert.Equal(t, "created", body["message"])
	assert.NotContains(t, body, "code")
	assert.Equal(t, map[string]any{"id": "1"}, body["data"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusConflict, CodeExistingUser, "user already exists")

	assert.Equal(t, http.StatusConflict, w.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, Envelope{
		StatusCode: 409,
		Status:     "ERROR",
		Code:       "EXISTING_USER",
		Message:    "user already exists",
	}, env)

	// every envelope carries the data key, null on errors
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Contains(t, raw, "data")
	assert.Equal(t, "null", string(raw["data"]))
}
