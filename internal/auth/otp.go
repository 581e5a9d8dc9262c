package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/cache"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
)

const (
	otpDigits            = 6
	devOTPCode           = "123456"
	maxAttempts          = 5
	requestWindow        = 10 * time.Minute
	maxRequestsPerWindow = 5
)

var (
	// ErrOTPMismatch covers a wrong code, a missing record and a record of another purpose
	ErrOTPMismatch = errors.New("otp mismatch")
	// ErrOTPRateLimited is returned when too many codes were requested in the current window
	ErrOTPRateLimited = errors.New("otp rate limit exceeded")
)

// OtpProvider issues and checks purpose-scoped one-time codes
type OtpProvider interface {
	Issue(ctx context.Context, userID uuid.UUID, purpose model.OtpPurpose) (code string, err error)
	Verify(ctx context.Context, userID uuid.UUID, purpose model.OtpPurpose, code string) error
}

// CacheOtpProvider keeps one OTP record per (purpose, user) in the cache; only the salted code hash is stored
type CacheOtpProvider struct {
	cache   cache.Cache
	salt    string
	ttl     time.Duration
	devMode bool
	now     func() time.Time
}

var _ OtpProvider = (*CacheOtpProvider)(nil)

// NewCacheOtpProvider creates a new OTP provider. In dev mode every issued code is 123456.
func NewCacheOtpProvider(c cache.Cache, salt string, ttl time.Duration, devMode bool) *CacheOtpProvider {
	return &CacheOtpProvider{
		cache:   c,
		salt:    salt,
		ttl:     ttl,
		devMode: devMode,
		now:     time.Now,
	}
}

// Issue creates or replaces the OTP for (purpose, user) and returns the plaintext code for delivery.
// At most 5 codes per user per 10 minutes across purposes.
func (p *CacheOtpProvider) Issue(ctx context.Context, userID uuid.UUID, purpose model.OtpPurpose) (string, error) {
	count, err := p.cache.Incr(ctx, cache.OtpRequestsKey(userID), requestWindow)
	if err != nil {
		return "", fmt.Errorf("rate limit check: %w", err)
	}
	if count > maxRequestsPerWindow {
		return "", ErrOTPRateLimited
	}

	code := devOTPCode
	if !p.devMode {
		code, err = generateOTPCode()
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
	}

	record := model.OtpRecord{
		SubjectID: userID,
		Purpose:   purpose,
		CodeHash:  hashOTPHex(userID, purpose, code, p.salt),
		IssuedAt:  p.now(),
	}
	if err := p.cache.Set(ctx, cache.OtpKey(purpose, userID), record, p.ttl); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks code against the stored record. A match consumes the record; five misses delete it.
// The check and its write are one atomic cache update, so parallel guesses each count.
func (p *CacheOtpProvider) Verify(ctx context.Context, userID uuid.UUID, purpose model.OtpPurpose, code string) error {
	provided, err := hex.DecodeString(hashOTPHex(userID, purpose, code, p.salt))
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	var record model.OtpRecord
	err = p.cache.Update(ctx, cache.OtpKey(purpose, userID), &record, func(found bool) (cache.Write, error) {
		if !found || record.Purpose != purpose || record.SubjectID != userID {
			return cache.Write{}, ErrOTPMismatch
		}

		remaining := p.ttl - p.now().Sub(record.IssuedAt)
		if remaining <= 0 {
			return cache.Write{Delete: true}, ErrOTPMismatch
		}

		stored, err := hex.DecodeString(record.CodeHash)
		if err != nil {
			return cache.Write{}, fmt.Errorf("decode stored otp: %w", err)
		}
		if subtle.ConstantTimeCompare(provided, stored) == 1 {
			return cache.Write{Delete: true}, nil
		}

		record.Attempts++
		if record.Attempts >= maxAttempts {
			return cache.Write{Delete: true}, ErrOTPMismatch
		}
		return cache.Write{Value: record, TTL: remaining}, ErrOTPMismatch
	})
	if err != nil && !errors.Is(err, ErrOTPMismatch) {
		return fmt.Errorf("verify otp: %w", err)
	}
	return err
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// hashOTPHex returns SHA-256(user:purpose:code:salt) as hex
func hashOTPHex(userID uuid.UUID, purpose model.OtpPurpose, code, salt string) string {
	data := fmt.Sprintf("%s:%s:%s:%s", userID, purpose, code, salt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
