package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// SecurityEntry is the log-side view of a security event
type SecurityEntry struct {
	EventType string
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
	URL       string
	Details   string
	Metadata  map[string]interface{}
}

// SecurityLogger writes security events to the structured log
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(logger *slog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger,
	}
}

// Log writes one security entry. Emails are always masked. Successful and
// informational events log at info, everything else at warn.
func (sl *SecurityLogger) Log(ctx context.Context, entry SecurityEntry) {
	attrs := []slog.Attr{
		slog.String("log_type", "security"),
		slog.String("event_type", entry.EventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if entry.UserID != "" {
		attrs = append(attrs, slog.String("user_id", entry.UserID))
	}
	if entry.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(entry.Email)))
	}
	if entry.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", entry.IPAddress))
	}
	if entry.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", entry.UserAgent))
	}
	if entry.URL != "" {
		attrs = append(attrs, slog.String("url", entry.URL))
	}
	if entry.Details != "" {
		attrs = append(attrs, slog.String("details", entry.Details))
	}

	if len(entry.Metadata) > 0 {
		keys := make([]string, 0, len(entry.Metadata))
		for k := range entry.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		group := make([]any, 0, len(keys))
		for _, k := range keys {
			group = append(group, slog.String(k, fmt.Sprint(entry.Metadata[k])))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	level := slog.LevelWarn
	if entry.EventType == "auth_success" || entry.EventType == "auth_attempt" {
		level = slog.LevelInfo
	}
	sl.logger.LogAttrs(ctx, level, "security event", attrs...)
}
