package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "u***@*******.com"},
		{"a@b.org", "a@*.org"},
		{"not-an-email", "[invalid-email]"},
		{"a@b@c", "[invalid-email]"},
		{"@example.com", "[invalid-email]"},
		{"ñandú@correo.es", "ñ****@******.es"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizedEmail(tt.input))
		})
	}
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"token=abc", "token=[REDACTED]"},
		{"Email=x@y.z&lang=es", "Email=[REDACTED]&lang=es"},
		{"category=exploratoria&limit=10", "category=exploratoria&limit=10"},
		{"limit=10&category=normativa", "category=normativa&limit=10"},
		{"session_id=1&search=delphi", "search=delphi&session_id=[REDACTED]"},
		{"bad=%zz", "[REDACTED]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactQuery(tt.in))
		})
	}
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("k", "secret", "production").Value.String())
	assert.Equal(t, "secret", RedactedAttr("k", "secret", "development").Value.String())
}

func TestSecurityLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	sl.Log(context.Background(), SecurityEntry{
		EventType: "auth_failure",
		Email:     "user@example.com",
		Details:   "invalid credentials",
		Metadata:  map[string]interface{}{"remaining_attempts": 3},
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "security event", record["msg"])
	assert.Equal(t, "auth_failure", record["event_type"])
	assert.Equal(t, "u***@*******.com", record["email"])
	assert.NotContains(t, buf.String(), "user@example.com")

	metadata, ok := record["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "3", metadata["remaining_attempts"])
}

func TestSecurityLogger_SuccessLogsAtInfo(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	sl.Log(context.Background(), SecurityEntry{EventType: "auth_success", UserID: "u-1"})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "u-1", record["user_id"])
	assert.NotContains(t, record, "email")
}
