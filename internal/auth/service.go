package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/cache"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/mail"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/password"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/repo"
)

var (
	ErrExistingUser    = errors.New("user already exists")
	ErrNotFound        = errors.New("user not found")
	ErrInvalidLogin    = errors.New("invalid email or password")
	ErrAlreadyVerified = errors.New("user already verified")
)

// SignupInput is a validated signup request
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService orchestrates authentication operations
type AuthService struct {
	users  repo.UserRepo
	cache  cache.Cache
	otp    OtpProvider
	tokens *TokenService
	mailer mail.Sender
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repo.UserRepo,
	c cache.Cache,
	otp OtpProvider,
	tokens *TokenService,
	mailer mail.Sender,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		cache:  c,
		otp:    otp,
		tokens: tokens,
		mailer: mailer,
		logger: logger.Named("auth"),
	}
}

// Signup creates an unverified user and emails a signup verification code
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (model.User, error) {
	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return model.User{}, ErrExistingUser
	case !errors.Is(err, repo.ErrUserNotFound):
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.NewUser{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return model.User{}, ErrExistingUser
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()), zap.String("email", maskEmail(user.Email)))

	if err := s.sendOTP(ctx, user, model.OtpPurposeSignupVerification); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// ResendSignupOTP replaces the signup code of an unverified user and emails it again
func (s *AuthService) ResendSignupOTP(ctx context.Context, email string) error {
	user, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	return s.sendOTP(ctx, user, model.OtpPurposeSignupVerification)
}

// VerifyOTP checks the signup code, marks the user verified and starts a session
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (model.TokenPair, error) {
	user, err := s.lookup(ctx, email)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.otp.Verify(ctx, user.ID, model.OtpPurposeSignupVerification, code); err != nil {
		return model.TokenPair{}, err
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return model.TokenPair{}, fmt.Errorf("mark verified: %w", err)
	}
	user.IsVerified = true
	s.logger.Info("user verified", zap.String("user_id", user.ID.String()))

	return s.startSession(ctx, user)
}

// Login checks credentials and starts a session, replacing any previous refresh token.
// Unknown email, wrong password and unverified account all return ErrInvalidLogin.
func (s *AuthService) Login(ctx context.Context, email, pw string) (model.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return model.TokenPair{}, ErrInvalidLogin
		}
		return model.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if !s.credentialsValid(user, pw) {
		s.logger.Info("login rejected", zap.String("user_id", user.ID.String()))
		return model.TokenPair{}, ErrInvalidLogin
	}

	return s.startSession(ctx, user)
}

// ForgotPassword emails a password reset code
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	return s.sendOTP(ctx, user, model.OtpPurposeForgotPassword)
}

// ResetPassword checks the reset code, replaces the password and revokes the refresh token
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}

	if err := s.otp.Verify(ctx, user.ID, model.OtpPurposeForgotPassword, code); err != nil {
		return err
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.cache.Delete(ctx, cache.RefreshTokenKey(user.ID)); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.logger.Info("password reset", zap.String("user_id", user.ID.String()))
	return nil
}

// RefreshAccessToken issues a new access token for a refresh token that is both
// cryptographically valid and still the one cached for its user
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	var session model.RefreshSession
	found, err := s.cache.Get(ctx, cache.RefreshTokenKey(claims.UserID), &session)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if !found || session.Token != refreshToken {
		return "", ErrInvalidToken
	}

	return s.tokens.IssueAccessToken(claims.Identity())
}

// Logout revokes the user's refresh token. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.cache.Delete(ctx, cache.RefreshTokenKey(userID)); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.logger.Info("user logged out", zap.String("user_id", userID.String()))
	return nil
}

func (s *AuthService) lookup(ctx context.Context, email string) (model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// credentialsValid requires a verified account and a matching password
func (s *AuthService) credentialsValid(user model.User, pw string) bool {
	ok, err := password.Verify(pw, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unreadable", zap.String("user_id", user.ID.String()), zap.Error(err))
		return false
	}
	return ok && user.IsVerified
}

func (s *AuthService) startSession(ctx context.Context, user model.User) (model.TokenPair, error) {
	pair, err := s.tokens.IssueTokenPair(Identity{ID: user.ID, IsVerified: user.IsVerified})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	session := model.RefreshSession{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
	}
	if err := s.cache.Set(ctx, cache.RefreshTokenKey(user.ID), session, s.tokens.RefreshTTL()); err != nil {
		return model.TokenPair{}, fmt.Errorf("store session: %w", err)
	}
	return pair, nil
}

func (s *AuthService) sendOTP(ctx context.Context, user model.User, purpose model.OtpPurpose) error {
	code, err := s.otp.Issue(ctx, user.ID, purpose)
	if err != nil {
		if errors.Is(err, ErrOTPRateLimited) {
			return err
		}
		return fmt.Errorf("issue otp: %w", err)
	}
	if err := s.mailer.SendOTP(ctx, user.Email, purpose, code); err != nil {
		s.logger.Error("otp delivery failed",
			zap.String("user_id", user.ID.String()),
			zap.String("purpose", string(purpose)),
			zap.Error(err),
		)
		return fmt.Errorf("deliver otp: %w", err)
	}
	return nil
}

// maskEmail masks the local part for logging (e.g. al***@x.com)
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "****"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + domain
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + domain
}
