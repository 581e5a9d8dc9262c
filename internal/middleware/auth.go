package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/auth"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http/response"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/repo"
)

type contextKey string

const (
	userKey   contextKey = "user"
	userIDKey contextKey = "user_id"
)

// AccessTokenVerifier is the part of auth.TokenService the middleware needs
type AccessTokenVerifier interface {
	VerifyAccessToken(tokenString string) (*auth.JWTClaims, error)
}

// AuthMiddleware validates the Bearer access token, loads the user and attaches it to the context
func AuthMiddleware(tokens AccessTokenVerifier, userRepo repo.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				response.Error(w, http.StatusUnauthorized, response.CodeInvalidToken, "missing or malformed authorization header")
				return
			}

			claims, err := tokens.VerifyAccessToken(tokenString)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, response.CodeInvalidToken, "invalid or expired token")
				return
			}

			user, err := userRepo.GetByID(r.Context(), claims.UserID)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, response.CodeInvalidToken, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, &user)
			ctx = context.WithValue(ctx, userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUser returns the user attached to the request context (set by AuthMiddleware)
func GetUser(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}
