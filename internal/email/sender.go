package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/config"
)

// Sender defines the interface for sending emails.
// The rawMessage parameter should contain the full email message, including headers and body, properly formatted.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// SMTPSender implements the Sender interface using Go's net/smtp package.
type SMTPSender struct {
	from string
	auth smtp.Auth
	addr string
}

// NewSMTPSender creates a new SMTPSender, or a LoggingSender when SMTP_HOST is empty.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		log.Warn().Msg("SMTP host not configured, using logging email sender")
		return &LoggingSender{from: cfg.SmtpFromAddress}
	}

	auth := smtp.PlainAuth(
		"", // identity
		cfg.SmtpUsername,
		cfg.SmtpPassword,
		cfg.SmtpHost,
	)
	addr := fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort)

	return &SMTPSender{
		from: cfg.SmtpFromAddress,
		auth: auth,
		addr: addr,
	}
}

// Send sends an email using SMTP.
// The rawMessage is expected to be the complete email content.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := smtp.SendMail(s.addr, s.auth, s.from, to, rawMessage)
	if err != nil {
		log.Error().Err(err).Strs("to", to).Msg("Failed to send email via SMTP")
		return fmt.Errorf("smtp error: %w", err)
	}
	log.Info().Strs("to", to).Str("subject", subject).Msg("Email sent via SMTP")
	return nil
}

// LoggingSender just logs email details.
// Useful for development or when SMTP isn't configured.
type LoggingSender struct {
	from string
}

func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	log.Info().
		Strs("to", to).
		Str("from", s.from).
		Str("subject", subject).
		Str("raw", string(rawMessage)).
		Msg("Email logged instead of sent")
	return nil
}
