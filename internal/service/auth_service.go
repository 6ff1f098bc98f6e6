package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// fullAccess is the ability set granted to session tokens at login.
var fullAccess = []string{"*"}

// AuthService coordinates login, logout and the password lifecycle.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	issuer     *ResetIssuer
	tokenMgr   *auth.TokenManager
	revoked    auth.RevocationStore
	dispatcher events.Dispatcher
	logger     *zap.Logger

	bcryptCost      int
	defaultPassword string
	policy          auth.PasswordPolicy
}

// AuthDependencies encapsulates collaborator requirements for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	ResetIssuer       *ResetIssuer
	RevocationStore   auth.RevocationStore
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg *config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:           deps.UserRepo,
		resets:          deps.PasswordResetRepo,
		issuer:          deps.ResetIssuer,
		tokenMgr:        auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		revoked:         deps.RevocationStore,
		dispatcher:      deps.Dispatcher,
		logger:          deps.Logger,
		bcryptCost:      cfg.Auth.BcryptCost,
		defaultPassword: cfg.Auth.DefaultPassword,
		policy: auth.PasswordPolicy{
			MinLength:         cfg.Auth.PasswordMinLength,
			RequireUpperDigit: cfg.Auth.PasswordRequireUpperDigit,
		},
	}
}

// Login authenticates a user and issues a session token.
// Presenting the distributed default credential is rejected outright so
// first-time users are forced through the reset flow.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = normalizeEmail(email)

	if auth.IsDefaultPassword(password, s.defaultPassword) {
		s.logger.Warn("login rejected: default password used", zap.String("email", email))
		s.publish(ctx, events.New(events.EventLoginFailed, nil, email, events.Actor{},
			events.LoginFailedPayload{Reason: "default password"}))
		return nil, "", time.Time{}, apperrors.NewDefaultPasswordRejected()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			s.publish(ctx, events.New(events.EventLoginFailed, nil, email, events.Actor{},
				events.LoginFailedPayload{Reason: "unknown email"}))
			return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.NewDependencyUnavailable("user store", err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.publish(ctx, events.New(events.EventLoginFailed, &user.ID, email, events.Actor{},
			events.LoginFailedPayload{Reason: "wrong password"}))
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user, fullAccess)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	s.publish(ctx, events.New(events.EventLoginSucceeded, &user.ID, user.Email,
		events.Actor{Email: &user.Email, Role: &user.Role}, nil))
	return user, token, expiresAt, nil
}

// Logout invalidates the presented session token. Invalidating a token
// that is already unusable is not an error.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokenMgr.ParseToken(rawToken)
	if err != nil {
		// Unparsable or expired tokens are already invalid sessions.
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.RemainingLife(time.Now())); err != nil {
		return apperrors.NewDependencyUnavailable("session store", err)
	}
	return nil
}

// Profile returns the account bound to the authenticated session.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewUnauthenticated("user not found")
		}
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}
	return user, nil
}

// RequestPasswordReset issues and mails a recovery token. Unknown emails
// report success without side effects so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			s.logger.Debug("reset requested for unknown email", zap.String("email", email))
			return nil
		}
		return apperrors.NewDependencyUnavailable("user store", err)
	}

	if _, err := s.issuer.IssueAndMailReset(ctx, user.Email); err != nil {
		return err
	}

	s.publish(ctx, events.New(events.EventPasswordResetRequested, &user.ID, user.Email, events.Actor{}, nil))
	return nil
}

// ConfirmPasswordReset consumes a reset token and commits the new password.
//
// An expired token is deleted and, when its owner still exists, replaced by
// a freshly mailed one before the failure is reported. A valid token is
// deleted only after the user row write succeeds.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewInvalidOrExpiredToken()
		}
		return apperrors.NewDependencyUnavailable("token store", err)
	}

	if token.Expired(time.Now()) {
		return s.reissueExpired(ctx, token)
	}

	if violations := s.policy.Validate(newPassword); len(violations) > 0 {
		return apperrors.NewValidationError("password does not meet the strength policy",
			map[string]any{"password": violations})
	}

	user, err := s.users.GetByEmail(ctx, token.Email)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Live token without an owner is an inconsistency worth surfacing.
			s.logger.Error("reset token references missing user", zap.String("email", token.Email))
			return apperrors.NewUserNotFound()
		}
		return apperrors.NewDependencyUnavailable("user store", err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperrors.NewDependencyUnavailable("user store", err)
	}

	if err := s.resets.Delete(ctx, token.Token); err != nil && err != pgx.ErrNoRows {
		return apperrors.NewDependencyUnavailable("token store", err)
	}

	s.publish(ctx, events.New(events.EventPasswordResetCompleted, &user.ID, user.Email, events.Actor{}, nil))
	return nil
}

func (s *AuthService) reissueExpired(ctx context.Context, token *domain.PasswordResetToken) error {
	if err := s.resets.Delete(ctx, token.Token); err != nil {
		if err == pgx.ErrNoRows {
			// Lost the race to a concurrent consumer.
			return apperrors.NewInvalidOrExpiredToken()
		}
		return apperrors.NewDependencyUnavailable("token store", err)
	}

	user, err := s.users.GetByEmail(ctx, token.Email)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Owner is gone; nothing to re-issue.
			return apperrors.NewInvalidOrExpiredToken()
		}
		return apperrors.NewDependencyUnavailable("user store", err)
	}

	if fresh, err := s.issuer.IssueAndMailReset(ctx, user.Email); err != nil {
		if fresh == nil {
			return err
		}
		// The replacement token exists; only its delivery failed.
		s.logger.Warn("reissued reset link could not be mailed",
			zap.String("email", user.Email), zap.Error(err))
	}

	return apperrors.NewTokenExpiredReissued()
}

// ChangePassword verifies the current credential before committing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthenticated("user not found")
		}
		return apperrors.NewDependencyUnavailable("user store", err)
	}

	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.logger.Warn("password change rejected: wrong current password", zap.String("user_id", user.ID))
		return apperrors.NewInvalidCurrentPassword()
	}

	if violations := s.policy.Validate(newPassword); len(violations) > 0 {
		return apperrors.NewValidationError("password does not meet the strength policy",
			map[string]any{"newPassword": violations})
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperrors.NewDependencyUnavailable("user store", err)
	}

	s.publish(ctx, events.New(events.EventPasswordChanged, &user.ID, user.Email,
		events.Actor{Email: &user.Email, Role: &user.Role}, nil))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
