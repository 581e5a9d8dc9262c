package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/auth"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/cache"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http/response"
)

func envelopeOf(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

func TestValidators(t *testing.T) {
	assert.Empty(t, validateEmail("alice@x.com"))
	assert.NotEmpty(t, validateEmail(""))
	assert.NotEmpty(t, validateEmail("alice"))
	assert.NotEmpty(t, validateEmail("Alice <alice@x.com>"))

	assert.Empty(t, validatePassword("12345678"))
	assert.NotEmpty(t, validatePassword("1234567"))

	assert.Empty(t, validateOTP("042917"))
	assert.NotEmpty(t, validateOTP("42917"))
	assert.NotEmpty(t, validateOTP("04291a"))
	assert.NotEmpty(t, validateOTP("٠١٢٣٤٥"))

	assert.Empty(t, validateName("firstName", ""))
	assert.Empty(t, validateName("firstName", strings.Repeat("é", 100)))
	assert.Equal(t, "firstName must be at most 100 characters", validateName("firstName", strings.Repeat("a", 101)))

	assert.Equal(t, "id is required", validateRequired("id", ""))
	assert.Equal(t, "b", firstProblem("", "b", "c"))
	assert.Empty(t, firstProblem("", ""))
}

func TestDecode_BodyTooLarge(t *testing.T) {
	h := NewAuthHandler(nil, nil)
	body := `{"email":"a@x.com","password":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleLogin(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := envelopeOf(t, w)
	assert.Equal(t, response.CodeValidation, env.Code)
	assert.Equal(t, "request body too large", env.Message)
}

func TestDecode_IgnoresUnknownFields(t *testing.T) {
	h := NewAuthHandler(nil, nil)
	var dst emailRequest
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","extra":1}`))
	assert.True(t, h.decode(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "a@x.com", dst.Email)
}

func TestRespondServiceError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewAuthHandler(nil, zap.New(core))

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{auth.ErrExistingUser, http.StatusConflict, response.CodeExistingUser},
		{auth.ErrNotFound, http.StatusNotFound, response.CodeNotFound},
		{auth.ErrAlreadyVerified, http.StatusBadRequest, response.CodeValidation},
		{auth.ErrOTPMismatch, http.StatusBadRequest, response.CodeOtpMismatch},
		{auth.ErrInvalidLogin, http.StatusUnauthorized, response.CodeInvalidLogin},
		{fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized, response.CodeInvalidToken},
		{auth.ErrOTPRateLimited, http.StatusTooManyRequests, response.CodeRateLimited},
		{fmt.Errorf("issue otp: %w", cache.ErrUnavailable), http.StatusInternalServerError, response.CodeServerError},
		{errors.New("boom"), http.StatusInternalServerError, response.CodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			h.respondServiceError(w, httptest.NewRequest(http.MethodPost, "/auth/signup", nil), tt.err)
			assert.Equal(t, tt.status, w.Code)
			env := envelopeOf(t, w)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, response.StatusError, env.Status)
			assert.Equal(t, tt.status, env.StatusCode)
		})
	}

	// only unmapped errors are logged, and the client never sees their text
	assert.Equal(t, 2, logs.Len())
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestHandleMe_NoUser(t *testing.T) {
	w := httptest.NewRecorder()
	NewAuthHandler(nil, nil).HandleMe(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeInvalidToken, envelopeOf(t, w).Code)
}

func TestHandleLogout_Validation(t *testing.T) {
	h := NewAuthHandler(nil, nil)

	w := httptest.NewRecorder()
	h.HandleLogout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(`{"id":"not-a-uuid"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeValidation, envelopeOf(t, w).Code)

	// no authenticated caller in the context
	w = httptest.NewRecorder()
	h.HandleLogout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(`{"id":"7d4a1f9e-2b6c-4c1e-9a53-0f6f3c2b8d11"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeInvalidToken, envelopeOf(t, w).Code)
}
