package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMTPConfig holds SMTP relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// NewSMTPSendFunc returns a SendFunc that relays through an SMTP server with PLAIN auth when a username is set
func NewSMTPSendFunc(cfg SMTPConfig) SendFunc {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return func(ctx context.Context, to, from, subject, body string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return smtp.SendMail(addr, auth, from, []string{to}, buildMessage(to, from, subject, body, time.Now()))
	}
}

// NewLogSendFunc returns a SendFunc that writes the email to the log instead of sending it. Development only.
func NewLogSendFunc(logger *zap.Logger) SendFunc {
	return func(_ context.Context, to, from, subject, body string) error {
		logger.Info("email (not sent, dev mode)",
			zap.String("to", to),
			zap.String("from", from),
			zap.String("subject", subject),
			zap.String("body", body),
		)
		return nil
	}
}

func buildMessage(to, from, subject, body string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
