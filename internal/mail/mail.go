// Package mail delivers OTP emails.
//
// A Mailer renders the message from a text template and hands it to a SendFunc,
// so the transport (SMTP, log output in development) is swappable.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
)

// Sender delivers an OTP to an email address
type Sender interface {
	SendOTP(ctx context.Context, to string, purpose model.OtpPurpose, code string) error
}

// SendFunc transports a rendered email
type SendFunc func(ctx context.Context, to, from, subject, body string) error

// EmailParams is passed as data when executing the email template.
type EmailParams struct {
	Email         string
	SiteName      string
	Code          string
	Expiration    time.Duration
	Intro         string
	IgnoreMessage string
}

// DefaultEmailTemplate is used when Config.Template is empty.
const DefaultEmailTemplate = `Hi {{.Email}},

{{.Intro}}

{{.Code}}

The code is valid for {{printf "%.f" .Expiration.Minutes}} minutes.

{{.IgnoreMessage}}


Regards,

The {{.SiteName}} team
`

// Config configures a Mailer
type Config struct {
	From       string
	SiteName   string
	Expiration time.Duration
	Template   string
}

// Mailer renders OTP emails and sends them through a SendFunc
type Mailer struct {
	send SendFunc
	cfg  Config
	tmpl *template.Template
}

var _ Sender = (*Mailer)(nil)

// NewMailer creates a Mailer. It fails if the template does not parse.
func NewMailer(send SendFunc, cfg Config) (*Mailer, error) {
	if send == nil {
		return nil, fmt.Errorf("send func must be provided")
	}
	if cfg.Template == "" {
		cfg.Template = DefaultEmailTemplate
	}
	tmpl, err := template.New("otp").Parse(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &Mailer{send: send, cfg: cfg, tmpl: tmpl}, nil
}

// SendOTP renders and sends the code for the given purpose
func (m *Mailer) SendOTP(ctx context.Context, to string, purpose model.OtpPurpose, code string) error {
	subject, params := m.params(to, purpose, code)

	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, params); err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	if err := m.send(ctx, to, m.cfg.From, subject, body.String()); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (m *Mailer) params(to string, purpose model.OtpPurpose, code string) (string, EmailParams) {
	params := EmailParams{
		Email:      to,
		SiteName:   m.cfg.SiteName,
		Code:       code,
		Expiration: m.cfg.Expiration,
	}
	switch purpose {
	case model.OtpPurposeForgotPassword:
		params.Intro = "Use this code to reset your " + m.cfg.SiteName + " password:"
		params.IgnoreMessage = "If you did not request a password reset, you can ignore this email."
		return m.cfg.SiteName + " password reset code", params
	default:
		params.Intro = "Use this code to verify your " + m.cfg.SiteName + " account:"
		params.IgnoreMessage = "If you did not sign up, you can ignore this email."
		return m.cfg.SiteName + " verification code", params
	}
}
