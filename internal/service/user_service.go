package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// CreateUserInput carries validated account-creation fields.
type CreateUserInput struct {
	Name         string
	Email        string
	CPF          string
	Phone        *string
	Role         domain.Role
	Observations *string
}

// UpdateUserInput carries validated account-update fields.
type UpdateUserInput struct {
	Name         string
	Email        string
	CPF          string
	Phone        *string
	Role         domain.Role
	Observations *string
}

// UserPage is a paginated listing result.
type UserPage struct {
	Items        []domain.User
	Page         int
	PerPage      int
	TotalRecords int64
	TotalPages   int
}

// UserService implements administrative account management.
type UserService struct {
	users      repository.UserRepository
	issuer     *ResetIssuer
	dispatcher events.Dispatcher
	logger     *zap.Logger

	bcryptCost      int
	defaultPassword string
}

// UserDependencies encapsulates collaborator requirements for the user service.
type UserDependencies struct {
	UserRepo    repository.UserRepository
	ResetIssuer *ResetIssuer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewUserService builds the service.
func NewUserService(cfg *config.Config, deps UserDependencies) *UserService {
	return &UserService{
		users:           deps.UserRepo,
		issuer:          deps.ResetIssuer,
		dispatcher:      deps.Dispatcher,
		logger:          deps.Logger,
		bcryptCost:      cfg.Auth.BcryptCost,
		defaultPassword: cfg.Auth.DefaultPassword,
	}
}

// normalizeEmail is applied at every boundary that takes an email, so
// lookups always match the lowercase form stored at creation.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func actorOf(actor *domain.User) events.Actor {
	if actor == nil {
		return events.Actor{}
	}
	return events.Actor{Email: &actor.Email, Role: &actor.Role}
}

// Create registers a new account with the default credential and triggers
// the onboarding email. Collisions on unique identity fields are reported
// per field, email taking precedence over cpf, cpf over phone.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)

	phone := ""
	if input.Phone != nil {
		phone = *input.Phone
	}
	existing, err := s.users.FindByIdentity(ctx, email, input.CPF, phone)
	if err != nil && err != pgx.ErrNoRows {
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}
	if existing != nil {
		switch {
		case existing.Email == email:
			return nil, apperrors.NewDuplicateField("email")
		case existing.CPF == input.CPF:
			return nil, apperrors.NewDuplicateField("cpf")
		default:
			return nil, apperrors.NewDuplicateField("phone")
		}
	}

	hash, err := auth.HashPassword(s.defaultPassword, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        email,
		CPF:          input.CPF,
		Phone:        input.Phone,
		PasswordHash: hash,
		Role:         input.Role,
		Observations: input.Observations,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}

	s.publish(ctx, events.New(events.EventUserCreated, &user.ID, user.Email, actorOf(actor), nil))

	// Onboarding delivery is best-effort; the account exists either way
	// and ResendOnboarding covers a lost welcome mail.
	if _, err := s.issuer.IssueAndMailOnboarding(ctx, user); err != nil {
		s.logger.Warn("onboarding email failed",
			zap.String("user_id", user.ID),
			zap.String("email", user.Email),
			zap.Error(err))
		s.publish(ctx, events.New(events.EventOnboardingMailFailed, &user.ID, user.Email, actorOf(actor),
			events.OnboardingMailFailedPayload{Error: err.Error()}))
	}

	return user, nil
}

// ResendOnboarding re-issues the set-password token and welcome mail.
func (s *UserService) ResendOnboarding(ctx context.Context, actor *domain.User, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUserNotFound()
		}
		return apperrors.NewDependencyUnavailable("user store", err)
	}
	if _, err := s.issuer.IssueAndMailOnboarding(ctx, user); err != nil {
		return err
	}
	s.publish(ctx, events.New(events.EventPasswordResetRequested, &user.ID, user.Email, actorOf(actor), nil))
	return nil
}

// Get returns a single non-deleted account.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewUserNotFound()
		}
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}
	return user, nil
}

// List returns a filtered page of accounts.
func (s *UserService) List(ctx context.Context, filters repository.UserListFilters, page, perPage int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	items, total, err := s.users.List(ctx, filters, page, perPage)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &UserPage{
		Items:        items,
		Page:         page,
		PerPage:      perPage,
		TotalRecords: total,
		TotalPages:   totalPages,
	}, nil
}

// Update rewrites profile fields, re-checking identity uniqueness when
// email, cpf or phone change.
func (s *UserService) Update(ctx context.Context, actor *domain.User, userID string, input UpdateUserInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewUserNotFound()
		}
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}

	email := normalizeEmail(input.Email)

	phone := ""
	if input.Phone != nil {
		phone = *input.Phone
	}
	existing, err := s.users.FindByIdentity(ctx, email, input.CPF, phone)
	if err != nil && err != pgx.ErrNoRows {
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}
	if existing != nil && existing.ID != user.ID {
		switch {
		case existing.Email == email:
			return nil, apperrors.NewDuplicateField("email")
		case existing.CPF == input.CPF:
			return nil, apperrors.NewDuplicateField("cpf")
		default:
			return nil, apperrors.NewDuplicateField("phone")
		}
	}

	user.Name = input.Name
	user.Email = email
	user.CPF = input.CPF
	user.Phone = input.Phone
	user.Role = input.Role
	user.Observations = input.Observations

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}

	s.publish(ctx, events.New(events.EventUserUpdated, &user.ID, user.Email, actorOf(actor), nil))
	return user, nil
}

// ToggleStatus flips the active flag.
func (s *UserService) ToggleStatus(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewUserNotFound()
		}
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}

	user.Active = !user.Active
	if err := s.users.SetActive(ctx, user.ID, user.Active); err != nil {
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}

	s.publish(ctx, events.New(events.EventUserStatusChanged, &user.ID, user.Email, actorOf(actor),
		events.UserStatusChangedPayload{Active: user.Active}))
	return user, nil
}

// Delete soft-deletes the account; the row stays for audit purposes.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUserNotFound()
		}
		return apperrors.NewDependencyUnavailable("user store", err)
	}

	if err := s.users.SoftDelete(ctx, user.ID); err != nil {
		return apperrors.NewDependencyUnavailable("user store", err)
	}

	s.publish(ctx, events.New(events.EventUserDeleted, &user.ID, user.Email, actorOf(actor), nil))
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
