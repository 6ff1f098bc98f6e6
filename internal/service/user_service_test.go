package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

func createInput(email, cpf string) CreateUserInput {
	return CreateUserInput{
		Name:  "New Operator",
		Email: email,
		CPF:   cpf,
		Phone: strPtr("11999990000"),
		Role:  domain.RoleOperator,
	}
}

func TestCreateUser_Success(t *testing.T) {
	svc, users, resets, mailer := newUserFixture(t)

	user, err := svc.Create(context.Background(), nil, createInput("new@x.com", "12345678901"))
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.Active)

	stored := users.stored(t, user.ID)
	assert.True(t, verifyPassword(t, stored.PasswordHash, testDefaultPassword),
		"new accounts carry the hashed default credential")
	assert.NotEqual(t, testDefaultPassword, stored.PasswordHash)

	tokens := resets.tokensFor("new@x.com")
	require.Len(t, tokens, 1, "onboarding issues a set-password token")
	require.Equal(t, 1, mailer.sentCount())
	assert.Equal(t, "onboarding", mailer.sent[0].kind)
	assert.Contains(t, mailer.sent[0].link, tokens[0].Token)
}

func TestCreateUser_NormalizesEmail(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)

	user, err := svc.Create(context.Background(), nil, createInput("  MiXeD@X.Com ", "12345678901"))
	require.NoError(t, err)
	assert.Equal(t, "mixed@x.com", users.stored(t, user.ID).Email)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	existing := users.add(t, "Taken", "taken@x.com", "Whatever1")
	existing.CPF = "00000000000"

	before := users.count()
	_, err := svc.Create(context.Background(), nil, createInput("taken@x.com", "12345678901"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDuplicateField, apperrors.CodeOf(err))
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "email", de.Details["field"])
	assert.Equal(t, before, users.count(), "no new row may be persisted")
}

func TestCreateUser_DuplicateCPF(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	seeded := users.add(t, "Taken", "other@x.com", "Whatever1")

	_, err := svc.Create(context.Background(), nil, createInput("new@x.com", seeded.CPF))
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeDuplicateField, de.Code)
	assert.Equal(t, "cpf", de.Details["field"])
}

func TestCreateUser_DuplicatePhone(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	seeded := users.add(t, "Taken", "other@x.com", "Whatever1")
	seeded.Phone = strPtr("11999990000")

	_, err := svc.Create(context.Background(), nil, createInput("new@x.com", "12345678901"))
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "phone", de.Details["field"])
}

func TestCreateUser_EmailTakesPrecedenceOverOtherCollisions(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	seeded := users.add(t, "Taken", "taken@x.com", "Whatever1")

	// Email and CPF both collide with the same row; email wins.
	_, err := svc.Create(context.Background(), nil, createInput("taken@x.com", seeded.CPF))
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "email", de.Details["field"])
}

func TestCreateUser_OnboardingMailFailureDoesNotFailCreation(t *testing.T) {
	svc, users, resets, mailer := newUserFixture(t)
	mailer.onboardingErr = errors.New("smtp down")

	user, err := svc.Create(context.Background(), nil, createInput("new@x.com", "12345678901"))
	require.NoError(t, err, "account creation is reported even when the welcome mail fails")
	require.NotNil(t, user)
	assert.NotNil(t, users.stored(t, user.ID))
	assert.Len(t, resets.tokensFor("new@x.com"), 1,
		"the token exists so ResendOnboarding can recover delivery")
}

func TestResendOnboarding(t *testing.T) {
	svc, users, resets, mailer := newUserFixture(t)
	seeded := users.add(t, "Alice", "alice@x.com", testDefaultPassword)

	require.NoError(t, svc.ResendOnboarding(context.Background(), nil, seeded.ID))
	assert.Len(t, resets.tokensFor("alice@x.com"), 1)
	require.Equal(t, 1, mailer.sentCount())
	assert.Equal(t, "onboarding", mailer.sent[0].kind)

	err := svc.ResendOnboarding(context.Background(), nil, "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUserNotFound, apperrors.CodeOf(err))
}

func TestToggleStatus(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	seeded := users.add(t, "Alice", "alice@x.com", "Whatever1")

	toggled, err := svc.ToggleStatus(context.Background(), nil, seeded.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	toggled, err = svc.ToggleStatus(context.Background(), nil, seeded.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Active)
}

func TestDelete_SoftDeletesAndHidesUser(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	seeded := users.add(t, "Alice", "alice@x.com", "Whatever1")

	require.NoError(t, svc.Delete(context.Background(), nil, seeded.ID))

	_, err := svc.Get(context.Background(), seeded.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUserNotFound, apperrors.CodeOf(err))

	err = svc.Delete(context.Background(), nil, seeded.ID)
	require.Error(t, err, "deleting an already-deleted user is not found")
}

func TestUpdate_RejectsIdentityCollision(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	first := users.add(t, "First", "first@x.com", "Whatever1")
	second := users.add(t, "Second", "second@x.com", "Whatever1")

	_, err := svc.Update(context.Background(), nil, second.ID, UpdateUserInput{
		Name:  "Second",
		Email: first.Email,
		CPF:   second.CPF,
		Role:  domain.RoleOperator,
	})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeDuplicateField, de.Code)
	assert.Equal(t, "email", de.Details["field"])
}

func TestUpdate_AllowsKeepingOwnIdentity(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	seeded := users.add(t, "Alice", "alice@x.com", "Whatever1")

	updated, err := svc.Update(context.Background(), nil, seeded.ID, UpdateUserInput{
		Name:  "Alice Renamed",
		Email: seeded.Email,
		CPF:   seeded.CPF,
		Role:  domain.RoleCoordinator,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Renamed", updated.Name)
	assert.Equal(t, domain.RoleCoordinator, updated.Role)
}

func TestList_Pagination(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	for i := 0; i < 5; i++ {
		users.add(t, "User", string(rune('a'+i))+"@x.com", "Whatever1")
	}

	page, err := svc.List(context.Background(), repository.UserListFilters{Status: "all"}, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.TotalRecords)
	assert.Equal(t, 3, page.TotalPages)
}
