package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
)

type sent struct {
	to, from, subject, body string
}

func capture(out *[]sent) SendFunc {
	return func(_ context.Context, to, from, subject, body string) error {
		*out = append(*out, sent{to, from, subject, body})
		return nil
	}
}

func TestMailer_SendOTP(t *testing.T) {
	var out []sent
	m, err := NewMailer(capture(&out), Config{From: "no-reply@lms.test", SiteName: "Hives", Expiration: 10 * time.Minute})
	require.NoError(t, err)

	require.NoError(t, m.SendOTP(context.Background(), "alice@x.com", model.OtpPurposeSignupVerification, "042917"))
	require.Len(t, out, 1)
	assert.Equal(t, "alice@x.com", out[0].to)
	assert.Equal(t, "no-reply@lms.test", out[0].from)
	assert.Equal(t, "Hives verification code", out[0].subject)
	assert.Contains(t, out[0].body, "042917")
	assert.Contains(t, out[0].body, "valid for 10 minutes")
	assert.Contains(t, out[0].body, "verify your Hives account")

	require.NoError(t, m.SendOTP(context.Background(), "alice@x.com", model.OtpPurposeForgotPassword, "111111"))
	require.Len(t, out, 2)
	assert.Equal(t, "Hives password reset code", out[1].subject)
	assert.Contains(t, out[1].body, "reset your Hives password")
}

func TestMailer_SendError(t *testing.T) {
	boom := errors.New("relay refused")
	m, err := NewMailer(func(context.Context, string, string, string, string) error { return boom }, Config{})
	require.NoError(t, err)

	err = m.SendOTP(context.Background(), "a@x.com", model.OtpPurposeSignupVerification, "1")
	assert.ErrorIs(t, err, boom)
}

func TestNewMailer_Validation(t *testing.T) {
	_, err := NewMailer(nil, Config{})
	assert.Error(t, err)

	_, err = NewMailer(capture(&[]sent{}), Config{Template: "{{.Broken"})
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	date := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("a@x.com", "b@x.com", "Hi", "line1\nline2", date))
	assert.True(t, strings.HasPrefix(msg, "From: b@x.com\r\nTo: a@x.com\r\nSubject: Hi\r\n"))
	assert.Contains(t, msg, "Date: Thu, 15 Oct 2026 09:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline1\r\nline2"))
}

func TestLogSendFunc(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	send := NewLogSendFunc(zap.New(core))

	require.NoError(t, send(context.Background(), "a@x.com", "b@x.com", "subj", "body 123456"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "a@x.com", entry.ContextMap()["to"])
	assert.Equal(t, "body 123456", entry.ContextMap()["body"])
}

func TestSMTPSendFunc_CanceledContext(t *testing.T) {
	send := NewSMTPSendFunc(SMTPConfig{Host: "127.0.0.1", Port: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, send(ctx, "a@x.com", "b@x.com", "s", "b"), context.Canceled)
}
