package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
)

// Mailer delivers credential-lifecycle emails. Flows await the send, but
// implementations are free to queue internally.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, resetLink string) error
	SendOnboarding(ctx context.Context, user *domain.User, resetLink string) error
}

// ResetLink builds the user-facing recovery URL for a token.
func ResetLink(baseURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", baseURL, token)
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from notification config.
func NewSMTPMailer(cfg config.NotificationConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.EmailFrom,
	}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return m.dialer.DialAndSend(msg)
}

// SendPasswordReset mails a recovery link.
func (m *SMTPMailer) SendPasswordReset(_ context.Context, email, resetLink string) error {
	return m.send(email, "Password recovery", passwordResetBody(resetLink))
}

// SendOnboarding mails the welcome message with the first-password link.
func (m *SMTPMailer) SendOnboarding(_ context.Context, user *domain.User, resetLink string) error {
	return m.send(user.Email, "Welcome to the platform", onboardingBody(user, resetLink))
}

// LogMailer writes the links to the log instead of sending mail.
// Used when SMTP is not configured (development mode).
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a log-only mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, resetLink string) error {
	m.logger.Info("developer mode: password reset link",
		zap.String("email", email),
		zap.String("link", resetLink))
	return nil
}

func (m *LogMailer) SendOnboarding(_ context.Context, user *domain.User, resetLink string) error {
	m.logger.Info("developer mode: onboarding link",
		zap.String("email", user.Email),
		zap.String("link", resetLink))
	return nil
}

// NewMailer picks the SMTP mailer when a host is configured, the log
// mailer otherwise.
func NewMailer(cfg config.NotificationConfig, logger *zap.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg)
}
