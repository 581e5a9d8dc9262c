package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http/handlers"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/middleware"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/repo"
)

// NewRouter creates a new HTTP router with all routes configured.
// A nil limiter disables per-IP throttling of /auth.
func NewRouter(
	authHandler *handlers.AuthHandler,
	tokens middleware.AccessTokenVerifier,
	userRepo repo.UserRepo,
	limiter *middleware.RateLimiter,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	requireAuth := middleware.AuthMiddleware(tokens, userRepo)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(limiter, middleware.GetIPKey))

		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/verify-otp", authHandler.HandleVerifyOTP)
		r.Post("/resend-otp", authHandler.HandleResendOTP)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/forgot-password", authHandler.HandleForgotPassword)
		r.Post("/reset-password", authHandler.HandleResetPassword)
		r.Post("/refresh-token", authHandler.HandleRefreshToken)
		r.With(requireAuth).Post("/logout", authHandler.HandleLogout)
	})

	// Protected routes (require valid access token)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", authHandler.HandleMe)
	})

	return r
}
