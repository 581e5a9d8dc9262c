// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"encoding/json"
	"net/http"
)

const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// Error codes carried in the envelope's code field
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeExistingUser = "EXISTING_USER"
	CodeNotFound     = "NOT_FOUND_ERROR"
	CodeOtpMismatch  = "OTP_MISMATCH_ERROR"
	CodeInvalidLogin = "INVALID_LOGIN"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeServerError  = "SERVER_ERROR"
)

// Envelope is the response body shape shared by all endpoints
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// Success writes a SUCCESS envelope
func Success(w http.ResponseWriter, statusCode int, message string, data any) {
	write(w, Envelope{
		StatusCode: statusCode,
		Status:     StatusSuccess,
		Message:    message,
		Data:       data,
	})
}

// Error writes an ERROR envelope
func Error(w http.ResponseWriter, statusCode int, code, message string) {
	write(w, Envelope{
		StatusCode: statusCode,
		Status:     StatusError,
		Code:       code,
		Message:    message,
	})
}

func write(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	_ = json.NewEncoder(w).Encode(env)
}
