package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	MinPasswordLen = 8
	MaxPasswordLen = 128
	MaxScore       = 5

	// Passwords shorter than this lose two points on top of the failed length requirement.
	shortPasswordLen = 6
	// Runs of this many identical characters count as a common pattern.
	repeatedRunLen = 4
)

// SpecialCharacters is the fixed set that satisfies the special character requirement.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// PasswordRequirements reports which individual requirements a password met.
type PasswordRequirements struct {
	Length    bool `json:"length"`
	Uppercase bool `json:"uppercase"`
	Lowercase bool `json:"lowercase"`
	Number    bool `json:"number"`
	Special   bool `json:"special"`
}

// PasswordAssessment is the result of scoring one password.
type PasswordAssessment struct {
	IsValid      bool                 `json:"is_valid"`
	Score        int                  `json:"score"`
	Feedback     []string             `json:"feedback"`
	Requirements PasswordRequirements `json:"requirements"`
}

// Weak words matched case-insensitively at the start of the password.
var weakPrefixes = []string{
	"password",
	"contraseña",
	"123456",
	"qwerty",
	"admin",
	"letmein",
	"welcome",
	"monkey",
	"dragon",
	"master",
	"trustno1",
}

// Keyboard and counting sequences, matched case-sensitively at the start.
var sequencePrefixes = []string{"abc", "123", "qwe"}

// ValidatePasswordStrength scores a password using the default feedback language.
func ValidatePasswordStrength(password string) PasswordAssessment {
	return ValidatePasswordStrengthIn(DefaultLanguage, password)
}

// ValidatePasswordStrengthIn scores a password and writes feedback in the
// language that best matches lang (a BCP 47 tag or an Accept-Language value).
func ValidatePasswordStrengthIn(lang, password string) PasswordAssessment {
	msgs := messagesFor(lang)
	length := utf8.RuneCountInString(password)

	req := PasswordRequirements{
		Length:  length >= MinPasswordLen,
		Special: strings.ContainsAny(password, SpecialCharacters),
	}
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			req.Uppercase = true
		case unicode.IsLower(r):
			req.Lowercase = true
		case unicode.IsDigit(r):
			req.Number = true
		}
	}

	score := 0
	feedback := make([]string, 0, 7)
	checks := []struct {
		ok  bool
		msg string
	}{
		{req.Length, msgs.minLength},
		{req.Uppercase, msgs.uppercase},
		{req.Lowercase, msgs.lowercase},
		{req.Number, msgs.number},
		{req.Special, msgs.special},
	}
	for _, c := range checks {
		if c.ok {
			score++
		} else {
			feedback = append(feedback, c.msg)
		}
	}

	if length < shortPasswordLen {
		score = max(0, score-2)
		feedback = append(feedback, msgs.tooShort)
	}

	if hasCommonPattern(password) {
		score = max(0, score-1)
		feedback = append(feedback, msgs.commonPattern)
	}

	return PasswordAssessment{
		IsValid:      score >= 3 && length >= MinPasswordLen,
		Score:        score,
		Feedback:     feedback,
		Requirements: req,
	}
}

func hasCommonPattern(password string) bool {
	lower := strings.ToLower(password)
	for _, w := range weakPrefixes {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	for _, s := range sequencePrefixes {
		if strings.HasPrefix(password, s) {
			return true
		}
	}
	return hasRepeatedRun(password, repeatedRunLen)
}

// hasRepeatedRun reports whether any character repeats n or more times in a row.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
