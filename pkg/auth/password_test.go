package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength_AllRequirementsMet(t *testing.T) {
	result := ValidatePasswordStrength("Abcdef1!")

	assert.True(t, result.IsValid)
	assert.Equal(t, 5, result.Score)
	assert.Empty(t, result.Feedback)
	assert.Equal(t, PasswordRequirements{
		Length:    true,
		Uppercase: true,
		Lowercase: true,
		Number:    true,
		Special:   true,
	}, result.Requirements)
}

func TestValidatePasswordStrength_ShortPassword(t *testing.T) {
	result := ValidatePasswordStrengthIn("en", "abc")

	assert.False(t, result.IsValid)
	assert.Equal(t, 0, result.Score)
	assert.True(t, result.Requirements.Lowercase)
	assert.False(t, result.Requirements.Length)

	// Four unmet requirements, the short-password penalty and the "abc" sequence.
	assert.Equal(t, []string{
		"Must be at least 8 characters long",
		"Must include at least one uppercase letter",
		"Must include at least one number",
		"Must include at least one special character",
		"Password is too short",
		"Avoid common patterns or predictable sequences",
	}, result.Feedback)
}

func TestValidatePasswordStrength_Table(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		wantScore int
		wantValid bool
	}{
		{"empty", "", 0, false},
		{"valid strong password", "SecureP@ss123", 5, true},
		{"missing special", "SecurePass123", 4, true},
		{"missing uppercase and special", "securepass123", 3, true},
		{"only two classes", "securepass", 2, false},
		{"weak prefix penalised", "Password1!", 4, true},
		{"weak prefix ignores case", "PASSWORD1!a", 4, true},
		{"weak word after the start is not a prefix", "MyPassword1!", 5, true},
		{"repeated run penalised", "Xaaaa1!yz", 4, true},
		{"qwe sequence penalised", "qweRTY12!", 4, true},
		{"seven chars never valid", "Ab1!xyz", 4, false},
		{"five chars short penalty", "Ab1!x", 2, false},
		{"uppercase sequence is not a pattern", "ABC1defg!", 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePasswordStrength(tt.password)
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, tt.wantValid, result.IsValid)
		})
	}
}

func TestValidatePasswordStrength_ScoreNeverNegative(t *testing.T) {
	for _, pwd := range []string{"", "a", "aaaa", "123", "qwe"} {
		result := ValidatePasswordStrength(pwd)
		assert.GreaterOrEqual(t, result.Score, 0, pwd)
		assert.LessOrEqual(t, result.Score, MaxScore, pwd)
	}
}

func TestValidatePasswordStrength_LanguageSelection(t *testing.T) {
	es := ValidatePasswordStrengthIn("es-AR,es;q=0.9", "abc")
	en := ValidatePasswordStrengthIn("en-US,en;q=0.8", "abc")
	fallback := ValidatePasswordStrengthIn("de-DE", "abc")

	require.NotEmpty(t, es.Feedback)
	assert.Equal(t, "Debe tener al menos 8 caracteres", es.Feedback[0])
	assert.Equal(t, "Must be at least 8 characters long", en.Feedback[0])
	assert.Equal(t, es.Feedback, fallback.Feedback)
}

func TestMatchLanguage(t *testing.T) {
	assert.Equal(t, "es", MatchLanguage(""))
	assert.Equal(t, "en", MatchLanguage("en-GB"))
	assert.Equal(t, "es", MatchLanguage("es-MX,en;q=0.5"))
	assert.Equal(t, "es", MatchLanguage("not a language"))
}

func TestHasRepeatedRun(t *testing.T) {
	assert.True(t, hasRepeatedRun("xx1111", 4))
	assert.False(t, hasRepeatedRun("x111x1", 4))
	assert.True(t, hasRepeatedRun("ññññ", 4))
}

func TestHashAndComparePassword(t *testing.T) {
	password := "SecureP@ss123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.NoError(t, ComparePassword(hash, password))
	assert.Error(t, ComparePassword(hash, "WrongPassword123!"))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}
