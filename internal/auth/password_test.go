package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Str0ng!Pass", hash)

	assert.True(t, VerifyPassword("Str0ng!Pass", hash))
	assert.False(t, VerifyPassword("str0ng!pass", hash))
	assert.False(t, VerifyPassword("Str0ng!Pass ", hash))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("Str0ng!Pass", "not-a-bcrypt-hash"))
	assert.False(t, VerifyPassword("Str0ng!Pass", ""))
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	h2, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCheckStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
		want     string
	}{
		{"too short", "short1!", false, "Password must be at least 8 characters"},
		{"no uppercase", "alllowercase1!", false, "Password must contain at least one uppercase letter"},
		{"no lowercase", "ALLUPPER1!", false, "Password must contain at least one lowercase letter"},
		{"no digit", "NoDigits!", false, "Password must contain at least one number"},
		{"no special", "NoSymbols1", false, "Password must contain at least one special character"},
		{"valid", "Str0ng!Pass", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckStrength(tt.password)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.want != "" {
				assert.Contains(t, res.Violations, tt.want)
			} else {
				assert.Empty(t, res.Violations)
			}
		})
	}
}

func TestCheckStrengthCollectsAllViolations(t *testing.T) {
	res := CheckStrength("abc")
	require.False(t, res.Valid)
	// Short, no uppercase, no digit, no special: four rules at once.
	assert.Len(t, res.Violations, 4)
}
