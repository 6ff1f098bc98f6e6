package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
)

const (
	testDefaultPassword = "changeme"
	testBaseResetURL    = "http://front.local"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:                 "test-secret",
			AccessTokenTTLMinutes:     60,
			PasswordResetTTLMinutes:   60,
			BcryptCost:                bcrypt.MinCost,
			DefaultPassword:           testDefaultPassword,
			PasswordMinLength:         6,
			PasswordRequireUpperDigit: true,
		},
		Notification: config.NotificationConfig{
			EmailFrom:    "noreply@test.local",
			BaseResetURL: testBaseResetURL,
		},
	}
}

// --- fakes ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // by id

	updatePasswordErr error
	createErr         error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) add(t *testing.T, name, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		CPF:          uuid.NewString()[:11],
		PasswordHash: string(hash),
		Role:         domain.RoleOperator,
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.mu.Lock()
	r.users[user.ID] = user
	r.mu.Unlock()
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok || stored.Deleted {
		return pgx.ErrNoRows
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.Deleted {
		return nil, pgx.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email && !user.Deleted {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) FindByIdentity(_ context.Context, email, cpf, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Deleted {
			continue
		}
		if user.Email == email || user.CPF == cpf {
			cp := *user
			return &cp, nil
		}
		if phone != "" && user.Phone != nil && *user.Phone == phone {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	if r.updatePasswordErr != nil {
		return r.updatePasswordErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.Deleted {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.Deleted {
		return pgx.ErrNoRows
	}
	user.Active = active
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.Deleted {
		return pgx.ErrNoRows
	}
	user.Deleted = true
	user.Active = false
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, filters repository.UserListFilters, page, perPage int) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.User
	for _, user := range r.users {
		if user.Deleted {
			continue
		}
		if filters.Name != "" && !strings.Contains(strings.ToLower(user.Name), strings.ToLower(filters.Name)) {
			continue
		}
		if filters.Status == "active" && !user.Active {
			continue
		}
		if filters.Status == "inactive" && user.Active {
			continue
		}
		all = append(all, *user)
	}
	total := int64(len(all))
	start := (page - 1) * perPage
	if start > len(all) {
		return nil, total, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeUserRepo) stored(t *testing.T, id string) *domain.User {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		t.Fatalf("user %s not stored", id)
	}
	cp := *user
	return &cp
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, user := range r.users {
		if !user.Deleted {
			n++
		}
	}
	return n
}

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.PasswordResetToken // by token string

	createErr error
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]*domain.PasswordResetToken)}
}

func (r *fakeResetRepo) Create(_ context.Context, token *domain.PasswordResetToken) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *token
	return &cp, nil
}

func (r *fakeResetRepo) Delete(_ context.Context, tokenStr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[tokenStr]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tokens, tokenStr)
	return nil
}

func (r *fakeResetRepo) tokensFor(email string) []*domain.PasswordResetToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.PasswordResetToken
	for _, token := range r.tokens {
		if token.Email == email {
			cp := *token
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeResetRepo) put(token, email string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &domain.PasswordResetToken{
		ID:        uuid.NewString(),
		Email:     email,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

type sentMail struct {
	kind  string // "reset" or "onboarding"
	email string
	link  string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail

	resetErr      error
	onboardingErr error
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, email, resetLink string) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "reset", email: email, link: resetLink})
	return nil
}

func (m *fakeMailer) SendOnboarding(_ context.Context, user *domain.User, resetLink string) error {
	if m.onboardingErr != nil {
		return m.onboardingErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "onboarding", email: user.Email, link: resetLink})
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]struct{}

	revokeErr error
}

func newFakeRevocationStore() *fakeRevocationStore {
	return &fakeRevocationStore{revoked: make(map[string]struct{})}
}

func (s *fakeRevocationStore) Revoke(_ context.Context, jti string, _ time.Duration) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = struct{}{}
	return nil
}

func (s *fakeRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}

// --- builders ---

type authFixture struct {
	users   *fakeUserRepo
	resets  *fakeResetRepo
	mailer  *fakeMailer
	revoked *fakeRevocationStore
	svc     *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := testConfig()
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	mailer := &fakeMailer{}
	revoked := newFakeRevocationStore()
	issuer := NewResetIssuer(cfg, resets, mailer)

	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
		ResetIssuer:       issuer,
		RevocationStore:   revoked,
		Dispatcher:        events.NewInMemoryDispatcher(),
		Logger:            zap.NewNop(),
	})
	return &authFixture{users: users, resets: resets, mailer: mailer, revoked: revoked, svc: svc}
}

func newUserFixture(t *testing.T) (*UserService, *fakeUserRepo, *fakeResetRepo, *fakeMailer) {
	t.Helper()
	cfg := testConfig()
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	mailer := &fakeMailer{}
	issuer := NewResetIssuer(cfg, resets, mailer)

	svc := NewUserService(cfg, UserDependencies{
		UserRepo:    users,
		ResetIssuer: issuer,
		Dispatcher:  events.NewInMemoryDispatcher(),
		Logger:      zap.NewNop(),
	})
	return svc, users, resets, mailer
}

func verifyPassword(t *testing.T, hash, plain string) bool {
	t.Helper()
	return auth.ComparePassword(hash, plain) == nil
}
