package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("Secret1pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1pass", hash)

	assert.NoError(t, ComparePassword(hash, "Secret1pass"))
	assert.Error(t, ComparePassword(hash, "Wrong1pass"))
}

func TestIsDefaultPassword(t *testing.T) {
	assert.True(t, IsDefaultPassword("changeme", "changeme"))
	assert.False(t, IsDefaultPassword("other", "changeme"))
	assert.False(t, IsDefaultPassword("", "changeme"))
	// An unset default disables the guard entirely.
	assert.False(t, IsDefaultPassword("", ""))
	assert.False(t, IsDefaultPassword("anything", ""))
}

func TestPasswordPolicy(t *testing.T) {
	policy := PasswordPolicy{MinLength: 6, RequireUpperDigit: true}

	assert.Empty(t, policy.Validate("Newpass1"))
	assert.NotEmpty(t, policy.Validate("short"))
	assert.NotEmpty(t, policy.Validate("alllower1"))
	assert.NotEmpty(t, policy.Validate("NoDigitsHere"))

	relaxed := PasswordPolicy{MinLength: 8}
	assert.Empty(t, relaxed.Validate("alllowercase"))
	assert.NotEmpty(t, relaxed.Validate("2short"))
}

func TestGenerateResetToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := GenerateResetToken()
		require.NoError(t, err)
		assert.Len(t, token, 40)
		_, dup := seen[token]
		require.False(t, dup, "tokens must not repeat")
		seen[token] = struct{}{}
	}
}
