package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

const redacted = "[REDACTED]"

// SanitizedEmail masks an email address for logging (e.g., "u***@*******.com")
func SanitizedEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	// Keep the first character of the local part
	runes := []rune(local)
	local = string(runes[0]) + strings.Repeat("*", len(runes)-1)

	// Keep only the TLD of the domain
	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		labels[i] = strings.Repeat("*", len([]rune(labels[i])))
	}

	return local + "@" + strings.Join(labels, ".")
}

// RedactedAttr returns a redacted slog attribute for sensitive values
// In production, returns "[REDACTED]"; in development, returns the actual value
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, redacted)
	}
	return slog.String(key, value)
}

// sensitiveParams are query keys whose values never reach the logs
var sensitiveParams = []string{"password", "token", "secret", "email", "auth", "session"}

func isSensitiveParam(key string) bool {
	key = strings.ToLower(key)
	for _, p := range sensitiveParams {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

// RedactQuery returns rawQuery with the values of sensitive parameters
// replaced. A query that cannot be parsed is redacted entirely.
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return redacted
	}
	for key := range values {
		if isSensitiveParam(key) {
			values[key] = []string{redacted}
		}
	}
	// Encode sorts keys and escapes the brackets; unescape for readability
	out, err := url.QueryUnescape(values.Encode())
	if err != nil {
		return redacted
	}
	return out
}
