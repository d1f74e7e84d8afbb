// Package mailer delivers verification messages to subjects. The SMTP mailer
// covers email; SMS delivery goes through whatever gateway the deployment
// wires in, with a log-only fallback for development.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// SMTP delivers verification emails through an SMTP relay.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
	sms    SMSSender
	logger *slog.Logger
}

// SMSSender delivers one-time codes over SMS.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// NewSMTP builds an SMTP-backed notifier. When sms is nil, phone codes are
// logged instead of sent.
func NewSMTP(host string, port int, username, password, from string, sms SMSSender, logger *slog.Logger) *SMTP {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTP{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		sms:    sms,
		logger: logger,
	}
}

// SendEmailVerification emails the subject their verification link.
func (s *SMTP) SendEmailVerification(_ context.Context, email, link string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Verify your email address")
	m.SetBody("text/html", verificationBody(link))
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

// SendPhoneCode delivers the one-time code over SMS.
func (s *SMTP) SendPhoneCode(ctx context.Context, phone, code string) error {
	if s.sms == nil {
		s.logger.InfoContext(ctx, "sms gateway not configured, code not delivered", "phone", phone)
		return nil
	}
	return s.sms.Send(ctx, phone, "Your verification code is "+code)
}

func verificationBody(link string) string {
	return `<p>Confirm your email address by opening the link below.</p>` +
		`<p><a href="` + link + `">Verify email</a></p>` +
		`<p>The link expires in 24 hours. If you did not request this, ignore this message.</p>`
}

// Log is a development notifier that writes deliveries to the log instead of
// sending them.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) SendEmailVerification(ctx context.Context, email, link string) error {
	l.logger.InfoContext(ctx, "verification email (log delivery)", "email", email, "link", link)
	return nil
}

func (l *Log) SendPhoneCode(ctx context.Context, phone, code string) error {
	l.logger.InfoContext(ctx, "verification code (log delivery)", "phone", phone, "code", code)
	return nil
}
