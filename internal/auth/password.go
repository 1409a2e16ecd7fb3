package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the fixed work factor for password hashing.
const BcryptCost = 12

// specialChars is the punctuation set accepted by the strength policy.
const specialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash against a plaintext password.
// A malformed hash counts as a mismatch, not an error.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// StrengthResult reports every policy rule a password violates.
type StrengthResult struct {
	Valid      bool
	Violations []string
}

// CheckStrength validates a password against the signup policy: at least 8
// characters, one uppercase letter, one lowercase letter, one digit and one
// special character. All violations are collected so the caller can surface
// them in a single response.
func CheckStrength(plain string) StrengthResult {
	var violations []string

	if len(plain) < 8 {
		violations = append(violations, "Password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}
	if !hasUpper {
		violations = append(violations, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "Password must contain at least one number")
	}
	if !hasSpecial {
		violations = append(violations, "Password must contain at least one special character")
	}

	return StrengthResult{Valid: len(violations) == 0, Violations: violations}
}
