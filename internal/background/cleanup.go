package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

const cleanupTimeout = 30 * time.Second

// TokenCleaner removes revocation records for tokens that have expired anyway
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// AccessLogPurger removes access log entries past their retention period
type AccessLogPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// AttemptPruner drops stale in-memory rate limit records
type AttemptPruner interface {
	Prune() int
}

// CleanupManager periodically removes expired revoked tokens, old access
// logs and stale rate limit records. Any dependency may be nil.
type CleanupManager struct {
	tokens   TokenCleaner
	logs     AccessLogPurger
	attempts AttemptPruner
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	tokens TokenCleaner,
	logs AccessLogPurger,
	attempts AttemptPruner,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
) *CleanupManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CleanupManager{
		tokens:   tokens,
		logs:     logs,
		attempts: attempts,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// Run performs a cleanup immediately and then every interval until ctx is
// cancelled. It always returns nil so it can run in an errgroup.
func (cm *CleanupManager) Run(ctx context.Context) error {
	ticker := cm.clock.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.Chan():
			cm.RunOnce(ctx)
		case <-ctx.Done():
			cm.logger.Info("cleanup manager stopped")
			return nil
		}
	}
}

// RunOnce performs a single cleanup pass. Failures are logged and do not
// stop the remaining steps.
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	if cm.tokens != nil {
		rowsDeleted, err := cm.tokens.CleanupExpiredTokens(ctx, cm.clock.Now())
		if err != nil {
			cm.logger.Error("failed to cleanup expired tokens", slog.Any("error", err))
		} else if rowsDeleted > 0 {
			cm.logger.Info("expired token cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
		}
	}

	if cm.logs != nil {
		if _, err := cm.logs.PurgeExpired(ctx); err != nil {
			cm.logger.Error("failed to purge access logs", slog.Any("error", err))
		}
	}

	if cm.attempts != nil {
		if pruned := cm.attempts.Prune(); pruned > 0 {
			cm.logger.Debug("pruned rate limit records", slog.Int("pruned", pruned))
		}
	}
}
