package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents an LMS account
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUser holds the fields needed to create a user. PasswordHash must already be hashed.
type NewUser struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

// OtpPurpose scopes an OTP to the flow that issued it
type OtpPurpose string

const (
	OtpPurposeSignupVerification OtpPurpose = "SignupOtpVerification"
	OtpPurposeForgotPassword     OtpPurpose = "ForgotPasswordOtpVerification"
)

// OtpRecord is the cached state of an issued OTP
type OtpRecord struct {
	SubjectID uuid.UUID  `json:"subjectId"`
	Purpose   OtpPurpose `json:"purpose"`
	CodeHash  string     `json:"codeHash"`
	Attempts  int        `json:"attempts"`
	IssuedAt  time.Time  `json:"issuedAt"`
}

// TokenPair is returned by verify-otp and login
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshSession is the cached refresh token entry for a user
type RefreshSession struct {
	UserID    uuid.UUID `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
