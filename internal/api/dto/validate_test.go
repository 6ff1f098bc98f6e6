package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

func TestValidateLoginRequest(t *testing.T) {
	require.NoError(t, Validate(LoginRequest{Email: "a@x.com", Password: "secret"}))

	err := Validate(LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidationFailed, de.Code)
	assert.Contains(t, de.Details, "email")
	assert.Contains(t, de.Details, "password")
}

func TestValidateCreateUserRequest(t *testing.T) {
	valid := CreateUserRequest{
		Name:  "New Operator",
		Email: "new@x.com",
		CPF:   "12345678901",
		Role:  "operator",
	}
	require.NoError(t, Validate(valid))

	invalid := valid
	invalid.CPF = "123"
	invalid.Role = "superuser"
	err := Validate(invalid)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Contains(t, de.Details, "cpf")
	assert.Contains(t, de.Details, "role")
}

func TestValidateListUsersQuery(t *testing.T) {
	require.NoError(t, Validate(ListUsersQuery{}))
	require.NoError(t, Validate(ListUsersQuery{Status: "active"}))
	assert.Error(t, Validate(ListUsersQuery{Status: "bogus"}))
}
