// Package cache stores short-lived JSON values (OTP records, refresh tokens)
// in a networked key-value store shared by every API instance.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
)

// ErrUnavailable wraps every backend failure. Callers surface it as a server error.
var ErrUnavailable = errors.New("cache unavailable")

// ErrConflict is returned by Update when the key kept changing under it
var ErrConflict = errors.New("cache key changed concurrently")

// Cache is a last-write-wins JSON key-value store
type Cache interface {
	// Set stores value as JSON under key. A zero ttl keeps the key until deleted.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get decodes the value under key into dest; found is false when the key is absent.
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Incr bumps a fixed-window counter, starting the window on first use.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	// Update decodes key into dest, lets fn decide on a Write and commits it only if
	// key was not modified in between. dest is zeroed before each try.
	Update(ctx context.Context, key string, dest any, fn UpdateFunc) error
}

// Write is the change an UpdateFunc asks for. The zero value leaves the key as is.
type Write struct {
	Value  any
	TTL    time.Duration
	Delete bool
}

// UpdateFunc inspects the decoded value. Its error is returned by Update after the
// Write has been committed, so a rejection can still record state.
type UpdateFunc func(found bool) (Write, error)

const refreshTokenPrefix = "RefreshToken"

// OtpKey returns the cache key for an OTP of the given purpose, e.g. SignupOtpVerification:<id>
func OtpKey(purpose model.OtpPurpose, userID uuid.UUID) string {
	return string(purpose) + ":" + userID.String()
}

// SignupOtpKey returns SignupOtpVerification:<userID>
func SignupOtpKey(userID uuid.UUID) string {
	return OtpKey(model.OtpPurposeSignupVerification, userID)
}

// ForgotPasswordOtpKey returns ForgotPasswordOtpVerification:<userID>
func ForgotPasswordOtpKey(userID uuid.UUID) string {
	return OtpKey(model.OtpPurposeForgotPassword, userID)
}

// RefreshTokenKey returns RefreshToken:<userID>
func RefreshTokenKey(userID uuid.UUID) string {
	return refreshTokenPrefix + ":" + userID.String()
}

// OtpRequestsKey returns the throttle counter key for OTP sends to a user
func OtpRequestsKey(userID uuid.UUID) string {
	return "OtpRequests:" + userID.String()
}
