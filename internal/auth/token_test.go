package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    "user-1",
		Email: "alice@x.com",
		Role:  domain.RoleAdmin,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 60)

	token, expiresAt, err := tm.GenerateToken(testUser(), []string{"*"})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, []string{"*"}, claims.Abilities)
	assert.NotEmpty(t, claims.ID, "tokens carry a jti for revocation")
	assert.Greater(t, claims.RemainingLife(time.Now()), time.Duration(0))
}

func TestTokenJTIUnique(t *testing.T) {
	tm := NewTokenManager("secret", 60)

	first, _, err := tm.GenerateToken(testUser(), nil)
	require.NoError(t, err)
	second, _, err := tm.GenerateToken(testUser(), nil)
	require.NoError(t, err)

	firstClaims, err := tm.ParseToken(first)
	require.NoError(t, err)
	secondClaims, err := tm.ParseToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	other := NewTokenManager("different", 60)

	token, _, err := tm.GenerateToken(testUser(), nil)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	_, err := tm.ParseToken("not-a-jwt")
	assert.Error(t, err)
}
