package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
	"github.com/BradenHooton/prospectiva/pkg/logger"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// EventSink receives enriched security events. Implementations must be safe
// for concurrent use.
type EventSink interface {
	Name() string
	Send(ctx context.Context, entry *models.AccessLog) error
}

// AccessLogWriter is the persistence side of the access log table
type AccessLogWriter interface {
	Create(ctx context.Context, entry *models.AccessLog) error
}

type accessLogSink struct {
	repo AccessLogWriter
}

// NewAccessLogSink adapts an access log repository to an EventSink
func NewAccessLogSink(repo AccessLogWriter) EventSink {
	return &accessLogSink{repo: repo}
}

func (s *accessLogSink) Name() string { return "access_logs" }

func (s *accessLogSink) Send(ctx context.Context, entry *models.AccessLog) error {
	return s.repo.Create(ctx, entry)
}

const defaultEventSendTimeout = 5 * time.Second

// SecurityEventLogger records security events with a dual-write pattern: a
// structured log line immediately, then a best-effort send to every sink on a
// detached goroutine. Sink failures are logged as warnings and never reach
// the caller.
type SecurityEventLogger struct {
	sinks   []EventSink
	secLog  *logger.SecurityLogger
	logger  *slog.Logger
	clock   clockwork.Clock
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewSecurityEventLogger creates a new SecurityEventLogger
func NewSecurityEventLogger(sinks []EventSink, timeout time.Duration, clock clockwork.Clock, log *slog.Logger) *SecurityEventLogger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if timeout <= 0 {
		timeout = defaultEventSendTimeout
	}
	return &SecurityEventLogger{
		sinks:   sinks,
		secLog:  logger.NewSecurityLogger(log),
		logger:  log,
		clock:   clock,
		timeout: timeout,
	}
}

// LogSecurityEvent enriches event with the request context stored in ctx and
// dispatches it once. It returns immediately.
func (s *SecurityEventLogger) LogSecurityEvent(ctx context.Context, event models.SecurityEvent) {
	entry := s.enrich(ctx, event)

	s.secLog.Log(ctx, logger.SecurityEntry{
		EventType: entry.EventType,
		UserID:    deref(entry.UserID),
		Email:     deref(entry.Email),
		IPAddress: deref(entry.IPAddress),
		UserAgent: deref(entry.UserAgent),
		URL:       entry.URL,
		Details:   entry.Details,
		Metadata:  entry.Metadata,
	})

	// Sends outlive the request but keep its values (request id) for logging.
	detached := context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		s.wg.Add(1)
		go s.send(detached, sink, entry.Clone())
	}
}

// Flush blocks until every in-flight send has finished
func (s *SecurityEventLogger) Flush() {
	s.wg.Wait()
}

func (s *SecurityEventLogger) send(ctx context.Context, sink EventSink, entry *models.AccessLog) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("security event sink panicked",
				slog.String("sink", sink.Name()),
				slog.String("event_type", entry.EventType),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := sink.Send(ctx, entry); err != nil {
		s.logger.Warn("failed to send security event",
			slog.String("sink", sink.Name()),
			slog.String("event_type", entry.EventType),
			slog.Any("error", err))
	}
}

func (s *SecurityEventLogger) enrich(ctx context.Context, event models.SecurityEvent) *models.AccessLog {
	entry := &models.AccessLog{
		ID:            uuid.New(),
		EventType:     event.Type,
		UserID:        event.UserID,
		Email:         event.Email,
		Details:       event.Details,
		SessionMarker: models.SessionMarker,
		Metadata:      event.Metadata.Clone(),
		CreatedAt:     s.clock.Now().UTC(),
	}

	info, ok := pkghttp.RequestInfoFromContext(ctx)
	client := pkghttp.ParseUserAgent(info.UserAgent)
	entry.DeviceType = client.DeviceType
	entry.Browser = client.Browser
	entry.Platform = client.Platform
	entry.Locale = pkghttp.PreferredLocale(info.AcceptLanguage)
	if !ok {
		return entry
	}

	entry.URL = info.URL
	entry.Referrer = optional(info.Referrer)
	entry.IPAddress = optional(info.IPAddress)
	entry.UserAgent = optional(info.UserAgent)
	return entry
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
