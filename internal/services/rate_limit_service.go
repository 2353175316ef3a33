package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/pkg/logger"
	"github.com/jonboulle/clockwork"
)

// RateLimitConfig holds configuration for rate limiting behavior
type RateLimitConfig struct {
	MaxAttempts   int           // failures before an identifier is blocked
	Window        time.Duration // failures older than this no longer count
	BlockDuration time.Duration // how long a block lasts
}

// DefaultRateLimitConfig returns the standard thresholds: 5 failures within
// 15 minutes block for 30 minutes.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:   5,
		Window:        15 * time.Minute,
		BlockDuration: 30 * time.Minute,
	}
}

// RateLimiter counts failed attempts per identifier in memory and blocks an
// identifier once it reaches the limit. State is process-local and lost on restart.
type RateLimiter struct {
	mu      sync.Mutex
	records map[string]*models.AttemptRecord
	config  RateLimitConfig
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewRateLimiter creates a new RateLimiter
func NewRateLimiter(config RateLimitConfig, clock clockwork.Clock, logger *slog.Logger) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{
		records: make(map[string]*models.AttemptRecord),
		config:  config,
		clock:   clock,
		logger:  logger,
	}
}

// MaxAttempts returns the configured failure limit
func (rl *RateLimiter) MaxAttempts() int {
	return rl.config.MaxAttempts
}

// IsBlocked reports whether id is currently blocked. An expired block clears
// the identifier's record.
func (rl *RateLimiter) IsBlocked(id string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.records[id]
	if !ok || rec.BlockedUntil == nil {
		return false
	}
	if rl.clock.Now().Before(*rec.BlockedUntil) {
		return true
	}
	delete(rl.records, id)
	return false
}

// RecordAttempt records the outcome of one attempt for id
func (rl *RateLimiter) RecordAttempt(id string, success bool) models.AttemptResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if success {
		delete(rl.records, id)
		return models.AttemptResult{Blocked: false, RemainingAttempts: rl.config.MaxAttempts}
	}

	now := rl.clock.Now()
	rec, ok := rl.records[id]
	if !ok {
		rec = &models.AttemptRecord{}
		rl.records[id] = rec
	} else if rl.windowElapsed(rec, now) {
		rec.Count = 0
		if rec.BlockedUntil != nil && !now.Before(*rec.BlockedUntil) {
			rec.BlockedUntil = nil
		}
	}

	rec.Count++
	rec.LastAttemptAt = now

	if rec.Count >= rl.config.MaxAttempts {
		blockedUntil := now.Add(rl.config.BlockDuration)
		rec.BlockedUntil = &blockedUntil

		rl.logger.Warn("identifier blocked after repeated failures",
			slog.String("identifier", logger.SanitizedEmail(id)),
			slog.Int("failed_attempts", rec.Count),
			slog.Time("blocked_until", blockedUntil))

		return models.AttemptResult{
			Blocked:           true,
			RemainingAttempts: 0,
			BlockedUntil:      &blockedUntil,
		}
	}

	return models.AttemptResult{
		Blocked:           false,
		RemainingAttempts: rl.config.MaxAttempts - rec.Count,
	}
}

// GetRemainingAttempts returns how many failures id may still make before being blocked
func (rl *RateLimiter) GetRemainingAttempts(id string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.records[id]
	if !ok || rl.windowElapsed(rec, rl.clock.Now()) {
		return rl.config.MaxAttempts
	}
	return max(0, rl.config.MaxAttempts-rec.Count)
}

// GetBlockedUntil returns the stored block expiry for id, or nil
func (rl *RateLimiter) GetBlockedUntil(id string) *time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.records[id]
	if !ok || rec.BlockedUntil == nil {
		return nil
	}
	until := *rec.BlockedUntil
	return &until
}

// Prune drops records that no longer affect any answer: no active block and
// the failure window has elapsed. Returns the number of records removed.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	removed := 0
	for id, rec := range rl.records {
		if rec.BlockedUntil != nil && now.Before(*rec.BlockedUntil) {
			continue
		}
		if !rl.windowElapsed(rec, now) {
			continue
		}
		delete(rl.records, id)
		removed++
	}
	return removed
}

// Len returns the number of tracked identifiers
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.records)
}

func (rl *RateLimiter) windowElapsed(rec *models.AttemptRecord, now time.Time) bool {
	return now.Sub(rec.LastAttemptAt) > rl.config.Window
}
