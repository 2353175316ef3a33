package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Security event types
const (
	EventAuthAttempt        = "auth_attempt"
	EventAuthSuccess        = "auth_success"
	EventAuthFailure        = "auth_failure"
	EventRateLimit          = "rate_limit"
	EventSuspiciousActivity = "suspicious_activity"
)

// SessionMarker is stored in place of the real session identifier.
const SessionMarker = "api"

// IsValidEventType checks if t is one of the known security event types
func IsValidEventType(t string) bool {
	switch t {
	case EventAuthAttempt, EventAuthSuccess, EventAuthFailure, EventRateLimit, EventSuspiciousActivity:
		return true
	}
	return false
}

// SecurityEvent is a single security-relevant occurrence. Build one, log it once.
type SecurityEvent struct {
	Type     string
	UserID   *string
	Email    *string
	Details  string
	Metadata EventMetadata
}

// AccessLog is a SecurityEvent enriched with request context, as persisted.
type AccessLog struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	EventType     string        `db:"event_type" json:"event_type"`
	UserID        *string       `db:"user_id" json:"user_id,omitempty"`
	Email         *string       `db:"email" json:"email,omitempty"`
	Details       string        `db:"details" json:"details"`
	URL           string        `db:"url" json:"url"`
	SessionMarker string        `db:"session_marker" json:"session_marker"`
	DeviceType    string        `db:"device_type" json:"device_type"`
	Browser       string        `db:"browser" json:"browser"`
	Platform      string        `db:"platform" json:"platform"`
	Locale        string        `db:"locale" json:"locale"`
	Referrer      *string       `db:"referrer" json:"referrer,omitempty"`
	IPAddress     *string       `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent     *string       `db:"user_agent" json:"user_agent,omitempty"`
	Metadata      EventMetadata `db:"metadata" json:"metadata"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// AccessLogFilter narrows an access log listing. Zero values mean no filter.
type AccessLogFilter struct {
	EventType string
	UserID    string
	Limit     int
	Offset    int
}

// EventMetadata holds additional context for security events
type EventMetadata map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (m *EventMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(EventMetadata)
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("%w: unsupported metadata type %T", ErrBadRequest, value)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	if decoded == nil {
		decoded = make(map[string]interface{})
	}
	*m = EventMetadata(decoded)
	return nil
}

// Value implements driver.Valuer for JSONB
func (m EventMetadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]interface{}(m))
}

// Clone returns a shallow copy so the caller's map is never shared with a sink.
func (m EventMetadata) Clone() EventMetadata {
	out := make(EventMetadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone returns a copy of the entry that shares no mutable state with l.
func (l *AccessLog) Clone() *AccessLog {
	out := *l
	out.UserID = cloneString(l.UserID)
	out.Email = cloneString(l.Email)
	out.Referrer = cloneString(l.Referrer)
	out.IPAddress = cloneString(l.IPAddress)
	out.UserAgent = cloneString(l.UserAgent)
	out.Metadata = l.Metadata.Clone()
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
