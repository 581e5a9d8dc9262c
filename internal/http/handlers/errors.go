package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/auth"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http/response"
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body of at most 1 MiB into dst. On failure it writes a VALIDATION_ERROR and returns false.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusBadRequest, response.CodeValidation, "request body too large")
			return false
		}
		response.Error(w, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return false
	}
	return true
}

// respondServiceError maps service errors to envelope codes. Anything unmapped is a SERVER_ERROR.
func (h *AuthHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrExistingUser):
		response.Error(w, http.StatusConflict, response.CodeExistingUser, "a user with this email already exists")
	case errors.Is(err, auth.ErrNotFound):
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "user not found")
	case errors.Is(err, auth.ErrAlreadyVerified):
		response.Error(w, http.StatusBadRequest, response.CodeValidation, "user is already verified")
	case errors.Is(err, auth.ErrOTPMismatch):
		response.Error(w, http.StatusBadRequest, response.CodeOtpMismatch, "invalid or expired otp")
	case errors.Is(err, auth.ErrInvalidLogin):
		response.Error(w, http.StatusUnauthorized, response.CodeInvalidLogin, "invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		response.Error(w, http.StatusUnauthorized, response.CodeInvalidToken, "invalid or expired token")
	case errors.Is(err, auth.ErrOTPRateLimited):
		response.Error(w, http.StatusTooManyRequests, response.CodeRateLimited, "too many codes requested, try again later")
	default:
		h.logger.Error("request failed",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		response.Error(w, http.StatusInternalServerError, response.CodeServerError, "something went wrong")
	}
}
