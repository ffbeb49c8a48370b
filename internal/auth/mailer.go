package auth

import (
	"context"
	"fmt"

	"stockroom/internal/config"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Mailer delivers auth links.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// dialer is the part of gomail.Dialer used to deliver messages.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpMailer struct {
	dialer dialer
	from   string
	logger zerolog.Logger
}

// NewMailer returns an SMTP mailer, or nil when mail is not configured.
func NewMailer(cfg config.MailConfig, logger zerolog.Logger) Mailer {
	if !cfg.MailEnabled() {
		return nil
	}
	return newSMTPMailer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, logger)
}

func newSMTPMailer(d dialer, from string, logger zerolog.Logger) *smtpMailer {
	return &smtpMailer{
		dialer: d,
		from:   from,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// Send sends a plain-text message.
func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error().Err(err).Str("to", to).Msg("failed to send mail")
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	m.logger.Info().Str("to", to).Str("subject", subject).Msg("mail sent")
	return nil
}

// InviteMail renders the invitation message.
func InviteMail(link string) (subject, body string) {
	return "You have been invited to Stockroom",
		"You have been invited to join Stockroom.\n\nOpen this link to choose a password:\n" + link + "\n"
}

// RecoveryMail renders the password reset message.
func RecoveryMail(link string) (subject, body string) {
	return "Reset your Stockroom password",
		"Someone asked to reset your Stockroom password.\n\nOpen this link to choose a new one:\n" + link + "\n\nIgnore this mail if it was not you.\n"
}
