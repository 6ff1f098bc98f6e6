package service

import (
	"context"
	"time"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/mail"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// ResetIssuer creates password reset tokens and mails their links.
// Both the forgot-password flow and account onboarding go through it.
type ResetIssuer struct {
	resets  repository.PasswordResetRepository
	mailer  mail.Mailer
	ttl     time.Duration
	baseURL string
}

// NewResetIssuer builds the issuer.
func NewResetIssuer(cfg *config.Config, resets repository.PasswordResetRepository, mailer mail.Mailer) *ResetIssuer {
	return &ResetIssuer{
		resets:  resets,
		mailer:  mailer,
		ttl:     cfg.Auth.ResetTokenTTL(),
		baseURL: cfg.Notification.BaseResetURL,
	}
}

func (i *ResetIssuer) issue(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	tokenStr, err := auth.GenerateResetToken()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	token := &domain.PasswordResetToken{
		Email:     email,
		Token:     tokenStr,
		ExpiresAt: time.Now().Add(i.ttl),
	}
	if err := i.resets.Create(ctx, token); err != nil {
		return nil, apperrors.NewDependencyUnavailable("token store", err)
	}
	return token, nil
}

// IssueAndMailReset persists a fresh token and mails the recovery link.
// The token row survives a mail failure so the request can be retried.
func (i *ResetIssuer) IssueAndMailReset(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	token, err := i.issue(ctx, email)
	if err != nil {
		return nil, err
	}
	link := mail.ResetLink(i.baseURL, token.Token)
	if err := i.mailer.SendPasswordReset(ctx, email, link); err != nil {
		return token, apperrors.NewDependencyUnavailable("mail transport", err)
	}
	return token, nil
}

// IssueAndMailOnboarding persists a fresh token and mails the welcome
// message containing the set-password link.
func (i *ResetIssuer) IssueAndMailOnboarding(ctx context.Context, user *domain.User) (*domain.PasswordResetToken, error) {
	token, err := i.issue(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	link := mail.ResetLink(i.baseURL, token.Token)
	if err := i.mailer.SendOnboarding(ctx, user, link); err != nil {
		return token, apperrors.NewDependencyUnavailable("mail transport", err)
	}
	return token, nil
}
