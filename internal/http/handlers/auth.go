package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/auth"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http/response"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{authService: authService, logger: logger.Named("http")}
}

// empty is the data payload of operations that return nothing
var empty = []struct{}{}

// signupRequest is the request body for POST /auth/signup
type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// HandleSignup handles POST /auth/signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if msg := firstProblem(
		validateEmail(req.Email),
		validatePassword(req.Password),
		validateName("firstName", req.FirstName),
		validateName("lastName", req.LastName),
	); msg != "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, msg)
		return
	}

	user, err := h.authService.Signup(r.Context(), auth.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "signup successful, check your email for the verification code", user)
}

// verifyOTPRequest is the request body for POST /auth/verify-otp
type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// HandleVerifyOTP handles POST /auth/verify-otp
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if msg := firstProblem(validateEmail(req.Email), validateOTP(req.OTP)); msg != "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, msg)
		return
	}

	pair, err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "email verified", pair)
}

// emailRequest is the request body for endpoints that only take an email
type emailRequest struct {
	Email string `json:"email"`
}

// HandleResendOTP handles POST /auth/resend-otp
func (h *AuthHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if msg := validateEmail(req.Email); msg != "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, msg)
		return
	}

	if err := h.authService.ResendSignupOTP(r.Context(), req.Email); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "verification code sent", empty)
}

// loginRequest is the request body for POST /auth/login
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if msg := firstProblem(validateEmail(req.Email), validateRequired("password", req.Password)); msg != "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, msg)
		return
	}

	pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "login successful", pair)
}

// HandleForgotPassword handles POST /auth/forgot-password
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if msg := validateEmail(req.Email); msg != "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, msg)
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "password reset code sent", empty)
}

// resetPasswordRequest is the request body for POST /auth/reset-password
type resetPasswordRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

// HandleResetPassword handles POST /auth/reset-password
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if msg := firstProblem(validateEmail(req.Email), validateOTP(req.OTP), validatePassword(req.Password)); msg != "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, msg)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Email, req.OTP, req.Password); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "password reset successful", empty)
}

// refreshRequest is the request body for POST /auth/refresh-token
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshResponse is the data payload for refresh-token
type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// HandleRefreshToken handles POST /auth/refresh-token
func (h *AuthHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if msg := validateRequired("refreshToken", req.RefreshToken); msg != "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, msg)
		return
	}

	accessToken, err := h.authService.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "access token refreshed", refreshResponse{AccessToken: accessToken})
}

// logoutRequest is the request body for POST /auth/logout
type logoutRequest struct {
	ID string `json:"id"`
}

// HandleLogout handles POST /auth/logout (protected). The body id must be the caller's own.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	if msg := validateRequired("id", req.ID); msg != "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, msg)
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, "id must be a valid uuid")
		return
	}

	callerID, ok := middleware.GetUserID(r.Context())
	if !ok || callerID != id {
		response.Error(w, http.StatusUnauthorized, response.CodeInvalidToken, "token does not belong to this user")
		return
	}

	if err := h.authService.Logout(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "logged out", empty)
}

// HandleMe handles GET /me (protected). Returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		response.Error(w, http.StatusUnauthorized, response.CodeInvalidToken, "unauthorized")
		return
	}

	response.Success(w, http.StatusOK, "user fetched", user)
}
