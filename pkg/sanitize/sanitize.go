// Package sanitize normalizes untrusted strings before they are stored or
// rendered. SanitizeHTMLContent is a denylist filter, not an HTML parser: it
// narrows the common injection vectors but does not guarantee safe markup.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxInputLength = 500
	MaxEmailLength = 254
)

// Characters rejected in an email address even when the overall shape matches.
const suspiciousEmailChars = `<>()[]\,;:"`

var (
	controlChars = regexp.MustCompile(`[\x00-\x1F\x7F-\x9F]`)
	angleBracket = regexp.MustCompile(`[<>]`)

	scriptBlock  = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	// A handler attribute may follow whitespace, a slash or the closing quote
	// of the previous attribute.
	eventHandler = regexp.MustCompile(`(?i)(?:\s+|[/"']\s*)on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	unsafeScheme = regexp.MustCompile(`(?i)(javascript|vbscript)\s*:|data\s*:\s*text/html`)

	emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// SanitizeInput trims surrounding whitespace, strips control characters and
// angle brackets, and truncates the result to MaxInputLength characters.
func SanitizeInput(input string) string {
	s := strings.TrimSpace(input)
	s = controlChars.ReplaceAllString(s, "")
	s = angleBracket.ReplaceAllString(s, "")
	return truncate(s, MaxInputLength)
}

// SanitizeHTMLContent removes script blocks, inline event handlers and
// script-capable URI schemes from an HTML fragment.
func SanitizeHTMLContent(html string) string {
	s := scriptBlock.ReplaceAllString(html, "")
	s = eventHandler.ReplaceAllStringFunc(s, keepAttributeSeparator)
	return unsafeScheme.ReplaceAllString(s, "")
}

// keepAttributeSeparator drops a matched handler but keeps a leading slash or
// quote, which belongs to the surrounding markup.
func keepAttributeSeparator(match string) string {
	switch match[0] {
	case '/', '"', '\'':
		return match[:1]
	}
	return ""
}

// EmailValidation lists every problem found with an address.
type EmailValidation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// ValidateEmail checks shape, length and character content of an address.
// All problems are reported, not just the first.
func ValidateEmail(email string) EmailValidation {
	errs := make([]string, 0)

	if email == "" {
		errs = append(errs, "email is required")
		return EmailValidation{IsValid: false, Errors: errs}
	}
	if !emailShape.MatchString(email) {
		errs = append(errs, "email format is invalid")
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		errs = append(errs, "email is too long")
	}
	if controlChars.MatchString(email) {
		errs = append(errs, "email contains control characters")
	}
	if strings.ContainsAny(email, suspiciousEmailChars) {
		errs = append(errs, "email contains invalid characters")
	}

	return EmailValidation{IsValid: len(errs) == 0, Errors: errs}
}

// ContainsControlChars reports whether s has any C0 or C1 control character.
func ContainsControlChars(s string) bool {
	return controlChars.MatchString(s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
