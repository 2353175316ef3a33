package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultAccessLogLimit = 50
	MaxAccessLogLimit     = 500
)

// AccessLogRepository is the read and retention side of the access log table
type AccessLogRepository interface {
	AccessLogWriter
	List(ctx context.Context, filter models.AccessLogFilter) ([]*models.AccessLog, error)
	Count(ctx context.Context, filter models.AccessLogFilter) (int64, error)
	CountByEventType(ctx context.Context) (map[string]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AccessLogPage is one page of access log entries, newest first
type AccessLogPage struct {
	Logs   []*models.AccessLog `json:"logs"`
	Total  int64               `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// AccessLogStats counts persisted events per type
type AccessLogStats struct {
	Total       int64            `json:"total"`
	ByEventType map[string]int64 `json:"by_event_type"`
}

// AccessLogService serves the admin review of recorded security events
type AccessLogService struct {
	repo      AccessLogRepository
	retention time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewAccessLogService creates a new AccessLogService. A zero retention keeps
// entries forever.
func NewAccessLogService(repo AccessLogRepository, retention time.Duration, clock clockwork.Clock, logger *slog.Logger) *AccessLogService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AccessLogService{
		repo:      repo,
		retention: retention,
		clock:     clock,
		logger:    logger,
	}
}

// ListLogs returns a filtered page of entries. Unknown event types are
// rejected rather than silently matching nothing.
func (s *AccessLogService) ListLogs(ctx context.Context, filter models.AccessLogFilter) (*AccessLogPage, error) {
	if filter.EventType != "" && !models.IsValidEventType(filter.EventType) {
		return nil, models.NewValidationErrorFor("event_type", "Unknown event type")
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultAccessLogLimit
	}
	if filter.Limit > MaxAccessLogLimit {
		filter.Limit = MaxAccessLogLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list access logs", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count access logs", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if logs == nil {
		logs = []*models.AccessLog{}
	}
	return &AccessLogPage{Logs: logs, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Stats counts entries per event type. Every known type is present, zero if
// nothing was recorded.
func (s *AccessLogService) Stats(ctx context.Context) (*AccessLogStats, error) {
	counts, err := s.repo.CountByEventType(ctx)
	if err != nil {
		s.logger.Error("failed to count access logs by type", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	stats := &AccessLogStats{ByEventType: map[string]int64{
		models.EventAuthAttempt:        0,
		models.EventAuthSuccess:        0,
		models.EventAuthFailure:        0,
		models.EventRateLimit:          0,
		models.EventSuspiciousActivity: 0,
	}}
	for eventType, n := range counts {
		stats.ByEventType[eventType] = n
		stats.Total += n
	}
	return stats, nil
}

// PurgeExpired deletes entries older than the retention period
func (s *AccessLogService) PurgeExpired(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	cutoff := s.clock.Now().Add(-s.retention)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("purged expired access logs",
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff))
	}
	return deleted, nil
}
