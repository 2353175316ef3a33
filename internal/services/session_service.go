package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/jonboulle/clockwork"
)

// SessionProvider fetches the session behind an access token. A nil session
// with a nil error means there is no session.
type SessionProvider interface {
	GetSession(ctx context.Context, accessToken string) (*models.Session, error)
}

// SecurityEventRecorder accepts security events for best-effort delivery
type SecurityEventRecorder interface {
	LogSecurityEvent(ctx context.Context, event models.SecurityEvent)
}

// SessionValidator turns provider results into "a valid session or nothing".
// It never returns an error: every failure is recorded as suspicious activity
// and resolved to no session.
type SessionValidator struct {
	provider SessionProvider
	events   SecurityEventRecorder
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewSessionValidator creates a new SessionValidator
func NewSessionValidator(provider SessionProvider, events SecurityEventRecorder, clock clockwork.Clock, logger *slog.Logger) *SessionValidator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionValidator{
		provider: provider,
		events:   events,
		clock:    clock,
		logger:   logger,
	}
}

// ValidateSession returns the session for accessToken if it exists and has
// not expired, otherwise nil.
func (v *SessionValidator) ValidateSession(ctx context.Context, accessToken string) (session *models.Session) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.ErrorContext(ctx, "panic during session validation", slog.String("panic", fmt.Sprint(r)))
			v.events.LogSecurityEvent(ctx, models.SecurityEvent{
				Type:     models.EventSuspiciousActivity,
				Details:  "Session validation error",
				Metadata: models.EventMetadata{"error": fmt.Sprint(r)},
			})
			session = nil
		}
	}()

	s, err := v.provider.GetSession(ctx, accessToken)
	if err != nil {
		v.events.LogSecurityEvent(ctx, models.SecurityEvent{
			Type:     models.EventSuspiciousActivity,
			Details:  "Session retrieval error",
			Metadata: models.EventMetadata{"error": err.Error()},
		})
		return nil
	}
	if s == nil {
		return nil
	}

	now := v.clock.Now().Unix()
	if s.ExpiresAt != 0 && s.ExpiresAt < now {
		userID := s.UserID
		v.events.LogSecurityEvent(ctx, models.SecurityEvent{
			Type:    models.EventSuspiciousActivity,
			UserID:  &userID,
			Details: "Expired session detected",
			Metadata: models.EventMetadata{
				"expires_at": s.ExpiresAt,
				"checked_at": now,
			},
		})
		return nil
	}

	return s
}
