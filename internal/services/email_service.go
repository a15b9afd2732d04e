package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"yamdb/internal/config"
)

// Notifier delivers a message to an email address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(cfg config.EmailConfig) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return &EmailService{
		dialer: dialer,
		from:   cfg.FromEmail,
	}
}

// Send dials SMTP and delivers a plain-text message. gomail has no context
// support, so the dial runs in its own goroutine and Send returns early when
// ctx is done.
func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email: %w", ctx.Err())
	}
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	n.log.Info("email (dry run)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// NewNotifier picks the SMTP sender or the dry-run logger according to cfg.
func NewNotifier(cfg config.EmailConfig, log *zap.Logger) Notifier {
	if cfg.DryRun || cfg.SMTPHost == "" {
		return NewLogNotifier(log)
	}
	return NewEmailService(cfg)
}

var (
	_ Notifier = (*EmailService)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
