package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityEventLogger_EnrichesFromRequest(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	sink := &MockEventSink{}
	l := NewSecurityEventLogger([]EventSink{sink}, time.Second, clock, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1")
	req.Header.Set("Referer", "https://prospectiva.example/login")
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9")
	ctx := pkghttp.WithRequestInfo(context.Background(), pkghttp.NewRequestInfo(req, nil))

	userID := "user-123"
	l.LogSecurityEvent(ctx, models.SecurityEvent{
		Type:     models.EventAuthFailure,
		UserID:   &userID,
		Details:  "invalid credentials",
		Metadata: models.EventMetadata{"remaining_attempts": 3},
	})
	l.Flush()

	entries := sink.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, models.EventAuthFailure, e.EventType)
	assert.Equal(t, "user-123", *e.UserID)
	assert.Equal(t, "/auth/login", e.URL)
	assert.Equal(t, "api", e.SessionMarker)
	assert.Equal(t, "mobile", e.DeviceType)
	assert.Equal(t, "Safari", e.Browser)
	assert.Equal(t, "iOS", e.Platform)
	assert.Equal(t, "es-AR", e.Locale)
	assert.Equal(t, "https://prospectiva.example/login", *e.Referrer)
	assert.Equal(t, "198.51.100.7", *e.IPAddress)
	assert.Equal(t, clock.Now(), e.CreatedAt)
	assert.Equal(t, 3, e.Metadata["remaining_attempts"])
}

func TestSecurityEventLogger_NoRequestContext(t *testing.T) {
	sink := &MockEventSink{}
	l := NewSecurityEventLogger([]EventSink{sink}, time.Second, clockwork.NewFakeClock(), slog.New(slog.NewJSONHandler(io.Discard, nil)))

	l.LogSecurityEvent(context.Background(), models.SecurityEvent{Type: models.EventSuspiciousActivity, Details: "background"})
	l.Flush()

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].URL)
	assert.Equal(t, "unknown", entries[0].DeviceType)
	assert.Equal(t, "unknown", entries[0].Locale)
	assert.Nil(t, entries[0].IPAddress)
	assert.NotNil(t, entries[0].Metadata)
}

func TestSecurityEventLogger_SinkFailureOnlyWarns(t *testing.T) {
	var buf bytes.Buffer
	failing := &MockEventSink{
		SendFunc: func(ctx context.Context, entry *models.AccessLog) error {
			return errors.New("connection refused")
		},
	}
	healthy := &MockEventSink{}
	l := NewSecurityEventLogger([]EventSink{failing, healthy}, time.Second, clockwork.NewFakeClock(), slog.New(slog.NewJSONHandler(&buf, nil)))

	assert.NotPanics(t, func() {
		l.LogSecurityEvent(context.Background(), models.SecurityEvent{Type: models.EventAuthAttempt})
		l.Flush()
	})

	assert.Len(t, healthy.Entries(), 1, "one failing sink must not stop the others")
	assert.Contains(t, buf.String(), "failed to send security event")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestSecurityEventLogger_SinkPanicIsContained(t *testing.T) {
	var buf bytes.Buffer
	panicking := &MockEventSink{
		SendFunc: func(ctx context.Context, entry *models.AccessLog) error {
			panic("boom")
		},
	}
	l := NewSecurityEventLogger([]EventSink{panicking}, time.Second, clockwork.NewFakeClock(), slog.New(slog.NewJSONHandler(&buf, nil)))

	l.LogSecurityEvent(context.Background(), models.SecurityEvent{Type: models.EventRateLimit})
	l.Flush()

	assert.Contains(t, buf.String(), "security event sink panicked")
}

func TestSecurityEventLogger_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	slow := &MockEventSink{
		SendFunc: func(ctx context.Context, entry *models.AccessLog) error {
			<-release
			return nil
		},
	}
	l := NewSecurityEventLogger([]EventSink{slow}, time.Minute, clockwork.NewFakeClock(), slog.New(slog.NewJSONHandler(io.Discard, nil)))

	done := make(chan struct{})
	go func() {
		l.LogSecurityEvent(context.Background(), models.SecurityEvent{Type: models.EventAuthAttempt})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("LogSecurityEvent blocked on a slow sink")
	}

	close(release)
	l.Flush()
}

func TestSecurityEventLogger_SendSurvivesRequestCancellation(t *testing.T) {
	var mu sync.Mutex
	var sendErr error
	sink := &MockEventSink{
		SendFunc: func(ctx context.Context, entry *models.AccessLog) error {
			mu.Lock()
			defer mu.Unlock()
			sendErr = ctx.Err()
			return nil
		},
	}
	l := NewSecurityEventLogger([]EventSink{sink}, time.Second, clockwork.NewFakeClock(), slog.New(slog.NewJSONHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.LogSecurityEvent(ctx, models.SecurityEvent{Type: models.EventAuthSuccess})
	l.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, sendErr)
}

func TestSecurityEventLogger_MetadataIsCopied(t *testing.T) {
	sink := &MockEventSink{}
	l := NewSecurityEventLogger([]EventSink{sink}, time.Second, clockwork.NewFakeClock(), slog.New(slog.NewJSONHandler(io.Discard, nil)))

	meta := models.EventMetadata{"k": "v"}
	l.LogSecurityEvent(context.Background(), models.SecurityEvent{Type: models.EventAuthAttempt, Metadata: meta})
	l.Flush()
	meta["k"] = "changed"

	assert.Equal(t, "v", sink.Entries()[0].Metadata["k"])
}

// rewritingSink mutates the entry it receives, as a database sink writing
// generated columns back would.
type rewritingSink struct{}

func (rewritingSink) Name() string { return "rewriting" }

func (rewritingSink) Send(ctx context.Context, entry *models.AccessLog) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	entry.Metadata["written"] = true
	return nil
}

// encodingSink serializes the entry it receives, as the Kafka sink does.
type encodingSink struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (s *encodingSink) Name() string { return "encoding" }

func (s *encodingSink) Send(ctx context.Context, entry *models.AccessLog) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	return nil
}

func TestSecurityEventLogger_SinksReceiveIndependentCopies(t *testing.T) {
	encoder := &encodingSink{}
	recorder := &MockEventSink{}
	l := NewSecurityEventLogger([]EventSink{rewritingSink{}, encoder, recorder}, time.Second, clockwork.NewFakeClock(), slog.New(slog.NewJSONHandler(io.Discard, nil)))

	for i := 0; i < 20; i++ {
		l.LogSecurityEvent(context.Background(), models.SecurityEvent{
			Type:     models.EventAuthFailure,
			Metadata: models.EventMetadata{"attempt": i},
		})
	}
	l.Flush()

	entries := recorder.Entries()
	require.Len(t, entries, 20)
	require.Len(t, encoder.payloads, 20)

	ids := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		assert.NotContains(t, e.Metadata, "written")
		ids[e.ID] = true
	}
	for _, payload := range encoder.payloads {
		var decoded models.AccessLog
		require.NoError(t, json.Unmarshal(payload, &decoded))
		assert.True(t, ids[decoded.ID], "encoded id matches the dispatched id")
		assert.NotContains(t, decoded.Metadata, "written")
	}
}

func TestAccessLogSink_DelegatesToRepository(t *testing.T) {
	repo := &MockAccessLogRepository{}
	sink := NewAccessLogSink(repo)

	err := sink.Send(context.Background(), &models.AccessLog{EventType: models.EventAuthAttempt})

	require.NoError(t, err)
	assert.Equal(t, "access_logs", sink.Name())
	assert.Len(t, repo.Created, 1)
}
