package handlers

import (
	"fmt"
	"net/mail"
	"unicode/utf8"
)

const (
	minPasswordLen = 8
	maxNameLen     = 100
	otpLen         = 6
)

// Each validator returns "" when the value is acceptable, otherwise a client-facing message.

func validateEmail(email string) string {
	if email == "" {
		return "email is required"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "email is not a valid address"
	}
	return ""
}

func validatePassword(pw string) string {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return fmt.Sprintf("password must be at least %d characters", minPasswordLen)
	}
	return ""
}

func validateOTP(otp string) string {
	if len(otp) != otpLen {
		return fmt.Sprintf("otp must be %d digits", otpLen)
	}
	for _, c := range otp {
		if c < '0' || c > '9' {
			return fmt.Sprintf("otp must be %d digits", otpLen)
		}
	}
	return ""
}

func validateName(field, name string) string {
	if utf8.RuneCountInString(name) > maxNameLen {
		return fmt.Sprintf("%s must be at most %d characters", field, maxNameLen)
	}
	return ""
}

func validateRequired(field, value string) string {
	if value == "" {
		return field + " is required"
	}
	return ""
}

func firstProblem(msgs ...string) string {
	for _, m := range msgs {
		if m != "" {
			return m
		}
	}
	return ""
}
