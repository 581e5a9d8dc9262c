package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or type checks
var ErrInvalidToken = errors.New("invalid token")

// Identity is the claim set tokens are issued from
type Identity struct {
	ID         uuid.UUID
	IsVerified bool
}

// JWTClaims represents the JWT token claims (shared by access and refresh tokens)
type JWTClaims struct {
	UserID     uuid.UUID `json:"id"`
	IsVerified bool      `json:"isVerified"`
	TokenType  string    `json:"typ"`
	jwt.RegisteredClaims
}

// Identity returns the claim set carried by the token
func (c *JWTClaims) Identity() Identity {
	return Identity{ID: c.UserID, IsVerified: c.IsVerified}
}

// TokenService handles JWT token operations
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenService creates a new token service. Access and refresh tokens are signed with different secrets.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// RefreshTTL is how long issued refresh tokens stay valid
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// IssueTokenPair signs a short-lived access token and a long-lived refresh token
func (s *TokenService) IssueTokenPair(id Identity) (model.TokenPair, error) {
	access, err := s.IssueAccessToken(id)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.sign(id, tokenTypeRefresh, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccessToken signs an access token only
func (s *TokenService) IssueAccessToken(id Identity) (string, error) {
	token, err := s.sign(id, tokenTypeAccess, s.accessSecret, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// VerifyAccessToken verifies and parses an access token
func (s *TokenService) VerifyAccessToken(tokenString string) (*JWTClaims, error) {
	return s.verify(tokenString, tokenTypeAccess, s.accessSecret)
}

// VerifyRefreshToken verifies signature, expiry and type of a refresh token. It does not consult the cache.
func (s *TokenService) VerifyRefreshToken(tokenString string) (*JWTClaims, error) {
	return s.verify(tokenString, tokenTypeRefresh, s.refreshSecret)
}

func (s *TokenService) sign(id Identity, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &JWTClaims{
		UserID:     id.ID,
		IsVerified: id.IsVerified,
		TokenType:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *TokenService) verify(tokenString, tokenType string, secret []byte) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
