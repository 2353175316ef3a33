package models

import (
	"errors"
	"testing"
	"time"
)

func TestEventMetadata_ScanBytes(t *testing.T) {
	var m EventMetadata
	if err := m.Scan([]byte(`{"remaining_attempts":3,"reason":"bad password"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m["reason"] != "bad password" {
		t.Errorf("expected reason to round-trip, got %v", m["reason"])
	}
	// JSON numbers decode as float64
	if m["remaining_attempts"] != float64(3) {
		t.Errorf("expected remaining_attempts 3, got %v", m["remaining_attempts"])
	}
}

func TestEventMetadata_ScanNilAndNull(t *testing.T) {
	var m EventMetadata
	if err := m.Scan(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Error("expected empty map for NULL column")
	}

	var fromNull EventMetadata
	if err := fromNull.Scan("null"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromNull == nil {
		t.Error("expected empty map for JSON null")
	}
}

func TestEventMetadata_ScanUnsupported(t *testing.T) {
	var m EventMetadata
	err := m.Scan(42)
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
}

func TestEventMetadata_ValueNil(t *testing.T) {
	var m EventMetadata
	v, err := m.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(v.([]byte)) != "{}" {
		t.Errorf("expected {}, got %s", v)
	}
}

func TestEventMetadata_CloneIsIndependent(t *testing.T) {
	original := EventMetadata{"a": 1}
	clone := original.Clone()
	clone["b"] = 2

	if _, ok := original["b"]; ok {
		t.Error("clone must not share storage with the original")
	}
}

func TestIsValidEventType(t *testing.T) {
	for _, et := range []string{EventAuthAttempt, EventAuthSuccess, EventAuthFailure, EventRateLimit, EventSuspiciousActivity} {
		if !IsValidEventType(et) {
			t.Errorf("expected %q to be valid", et)
		}
	}
	if IsValidEventType("login") {
		t.Error("expected login to be rejected")
	}
}

func TestRateLimitError_IsSentinel(t *testing.T) {
	var err error = &RateLimitError{BlockedUntil: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Error("expected RateLimitError to match ErrRateLimitExceeded")
	}

	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatal("expected errors.As to extract RateLimitError")
	}
	if rle.BlockedUntil.Year() != 2030 {
		t.Errorf("unexpected BlockedUntil %v", rle.BlockedUntil)
	}
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	if verr.HasErrors() {
		t.Fatal("new validation error should be empty")
	}

	verr.Add("email", "email format is invalid")
	verr.Add("email", "email is too long")

	if !verr.HasErrors() {
		t.Fatal("expected errors after Add")
	}
	if len(verr.Fields["email"]) != 2 {
		t.Errorf("expected 2 email messages, got %d", len(verr.Fields["email"]))
	}
	if !errors.Is(verr, ErrBadRequest) {
		t.Error("expected ValidationError to match ErrBadRequest")
	}
}

func TestAccessLog_CloneIsIndependent(t *testing.T) {
	email := "a***@example.com"
	orig := &AccessLog{EventType: EventAuthFailure, Email: &email, Metadata: EventMetadata{"attempt": 1}}

	c := orig.Clone()
	*c.Email = "changed"
	c.Metadata["attempt"] = 2
	c.Details = "changed"

	if *orig.Email != "a***@example.com" {
		t.Errorf("email pointer shared with clone: %q", *orig.Email)
	}
	if orig.Metadata["attempt"] != 1 {
		t.Errorf("metadata shared with clone: %v", orig.Metadata["attempt"])
	}
	if orig.Details != "" {
		t.Errorf("details changed on original: %q", orig.Details)
	}
}
