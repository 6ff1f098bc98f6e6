package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// IsDefaultPassword checks a candidate against the configured placeholder
// credential in constant time.
func IsDefaultPassword(candidate, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(configured)) == 1
}

// PasswordPolicy holds the minimum-strength rule for new passwords.
type PasswordPolicy struct {
	MinLength         int
	RequireUpperDigit bool
}

// Validate reports which rules the candidate password violates.
// An empty slice means the password is acceptable.
func (p PasswordPolicy) Validate(password string) []string {
	var violations []string
	if len(password) < p.MinLength {
		violations = append(violations, "too short")
	}
	if p.RequireUpperDigit {
		var hasUpper, hasDigit bool
		for _, r := range password {
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			if unicode.IsDigit(r) {
				hasDigit = true
			}
		}
		if !hasUpper {
			violations = append(violations, "missing uppercase letter")
		}
		if !hasDigit {
			violations = append(violations, "missing digit")
		}
	}
	return violations
}

// resetTokenBytes matches a 40-char hex token on the wire.
const resetTokenBytes = 20

// GenerateResetToken produces an unguessable hex token from a
// cryptographically secure source.
func GenerateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
