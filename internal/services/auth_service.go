package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/prospectiva/internal/auth"
	"github.com/BradenHooton/prospectiva/internal/models"
	pkgauth "github.com/BradenHooton/prospectiva/pkg/auth"
	pkglogger "github.com/BradenHooton/prospectiva/pkg/logger"
	"github.com/BradenHooton/prospectiva/pkg/sanitize"
	"github.com/jonboulle/clockwork"
)

const alertSendTimeout = 10 * time.Second

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// TokenRevocationRepository defines the interface for token revocation operations
type TokenRevocationRepository interface {
	RevokeToken(ctx context.Context, token *models.RevokedToken) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService handles authentication business logic
type AuthService struct {
	users       UserRepository
	revocations TokenRevocationRepository
	tokens      *auth.TokenManager
	limiter     *RateLimiter
	events      SecurityEventRecorder
	timing      *auth.TimingDelay
	alerts      AlertSender // nil disables block alerts
	clock       clockwork.Clock
	logger      *slog.Logger

	alertWG   sync.WaitGroup
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserRepository,
	revocations TokenRevocationRepository,
	tokens *auth.TokenManager,
	limiter *RateLimiter,
	events SecurityEventRecorder,
	timing *auth.TimingDelay,
	alerts AlertSender,
	clock clockwork.Clock,
	logger *slog.Logger,
) *AuthService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AuthService{
		users:       users,
		revocations: revocations,
		tokens:      tokens,
		limiter:     limiter,
		events:      events,
		timing:      timing,
		alerts:      alerts,
		clock:       clock,
		logger:      logger,
	}
}

// AuthResult is a successful login or registration
type AuthResult struct {
	Session *models.Session
	User    *models.User
}

// RegisterInput carries the fields of a sign-up request
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Language string // feedback language for password messages
}

// NormalizeEmail is the identifier used for lookups and rate limiting
func NormalizeEmail(email string) string {
	return strings.ToLower(sanitize.SanitizeInput(email))
}

// Login authenticates a user by email and password. Failures are counted per
// email; once the limit is reached every attempt fails with a
// *models.RateLimitError until the block expires.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	start := s.clock.Now()
	email = NormalizeEmail(email)

	s.events.LogSecurityEvent(ctx, models.SecurityEvent{
		Type:    models.EventAuthAttempt,
		Email:   &email,
		Details: "Login attempt",
	})

	if s.limiter.IsBlocked(email) {
		blockedUntil := s.clock.Now()
		if until := s.limiter.GetBlockedUntil(email); until != nil {
			blockedUntil = *until
		}
		s.events.LogSecurityEvent(ctx, models.SecurityEvent{
			Type:     models.EventRateLimit,
			Email:    &email,
			Details:  "Login attempt while blocked",
			Metadata: models.EventMetadata{"blocked_until": blockedUntil.UTC().Format(time.RFC3339)},
		})
		s.waitFrom(start, false)
		return nil, &models.RateLimitError{BlockedUntil: blockedUntil}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !s.checkCredentials(user, password) {
		return nil, s.loginFailed(ctx, start, email, user)
	}

	if err := user.StatusError(); err != nil {
		userID := user.ID
		s.logger.Info("login blocked due to account state",
			slog.String("user_id", user.ID),
			slog.String("status", user.Status))
		s.events.LogSecurityEvent(ctx, models.SecurityEvent{
			Type:     models.EventAuthFailure,
			UserID:   &userID,
			Email:    &email,
			Details:  "Login rejected for inactive account",
			Metadata: models.EventMetadata{"status": user.Status},
		})
		s.waitFrom(start, false)
		return nil, err
	}

	s.limiter.RecordAttempt(email, true)

	session, err := s.tokens.IssueSession(user)
	if err != nil {
		s.logger.Error("failed to issue session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	userID := user.ID
	s.events.LogSecurityEvent(ctx, models.SecurityEvent{
		Type:    models.EventAuthSuccess,
		UserID:  &userID,
		Email:   &email,
		Details: "Login successful",
	})
	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	s.waitFrom(start, true)
	return &AuthResult{Session: session, User: user}, nil
}

// checkCredentials compares against a throwaway hash when the user is
// unknown so both paths cost one bcrypt comparison.
func (s *AuthService) checkCredentials(user *models.User, password string) bool {
	if user == nil {
		_ = pkgauth.ComparePassword(s.placeholderHash(), password)
		return false
	}
	return pkgauth.ComparePassword(user.PasswordHash, password) == nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := pkgauth.HashPassword("placeholder-password-for-timing")
		if err != nil {
			s.logger.Error("failed to create placeholder hash", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) loginFailed(ctx context.Context, start time.Time, email string, user *models.User) error {
	result := s.limiter.RecordAttempt(email, false)

	var userID *string
	if user != nil {
		id := user.ID
		userID = &id
	}

	s.logger.Info("login failed: invalid credentials", slog.Int("remaining_attempts", result.RemainingAttempts))
	s.events.LogSecurityEvent(ctx, models.SecurityEvent{
		Type:     models.EventAuthFailure,
		UserID:   userID,
		Email:    &email,
		Details:  "Invalid credentials",
		Metadata: models.EventMetadata{"remaining_attempts": result.RemainingAttempts},
	})

	if !result.Blocked {
		s.waitFrom(start, false)
		return models.ErrUnauthorized
	}

	blockedUntil := *result.BlockedUntil
	s.events.LogSecurityEvent(ctx, models.SecurityEvent{
		Type:    models.EventRateLimit,
		UserID:  userID,
		Email:   &email,
		Details: "Too many failed login attempts",
		Metadata: models.EventMetadata{
			"max_attempts":  s.limiter.MaxAttempts(),
			"blocked_until": blockedUntil.UTC().Format(time.RFC3339),
		},
	})

	if user != nil && s.alerts != nil {
		s.sendBlockedAlert(ctx, user.Email, blockedUntil)
	}

	s.waitFrom(start, false)
	return &models.RateLimitError{BlockedUntil: blockedUntil}
}

// sendBlockedAlert mails the account owner without holding up the response
func (s *AuthService) sendBlockedAlert(ctx context.Context, email string, blockedUntil time.Time) {
	s.alertWG.Add(1)
	go func() {
		defer s.alertWG.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertSendTimeout)
		defer cancel()

		if err := s.alerts.SendAccountBlockedAlert(ctx, email, blockedUntil); err != nil {
			s.logger.Warn("failed to send account blocked alert",
				slog.String("email", pkglogger.SanitizedEmail(email)),
				slog.Any("error", err))
		}
	}()
}

// WaitForAlerts blocks until queued alert emails have been attempted
func (s *AuthService) WaitForAlerts() {
	s.alertWG.Wait()
}

func (s *AuthService) waitFrom(start time.Time, success bool) {
	if s.timing != nil {
		s.timing.WaitFrom(start, success)
	}
}

// Register creates a new account with the user role and signs it in.
// Invalid input is reported field by field as a *models.ValidationError.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := sanitize.SanitizeInput(input.Name)

	verr := models.NewValidationError()

	if v := sanitize.ValidateEmail(email); !v.IsValid {
		verr.Add("email", v.Errors...)
	}
	if name == "" {
		verr.Add("name", "Name is required")
	}
	if len(input.Password) > pkgauth.MaxPasswordLen {
		verr.Add("password", "Password is too long")
	} else if assessment := pkgauth.ValidatePasswordStrengthIn(input.Language, input.Password); !assessment.IsValid {
		verr.Add("password", assessment.Feedback...)
	}

	if verr.HasErrors() {
		return nil, verr
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("registration failed: user already exists")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check if user exists", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	session, err := s.tokens.IssueSession(created)
	if err != nil {
		s.logger.Error("failed to issue session", slog.String("user_id", created.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	userID := created.ID
	s.events.LogSecurityEvent(ctx, models.SecurityEvent{
		Type:    models.EventAuthSuccess,
		UserID:  &userID,
		Email:   &email,
		Details: "Account registered",
	})
	s.logger.Info("user registered", slog.String("user_id", created.ID))

	return &AuthResult{Session: session, User: created}, nil
}

// Logout revokes the session's token until it would have expired
func (s *AuthService) Logout(ctx context.Context, session *models.Session) error {
	if session == nil {
		return models.ErrUnauthorized
	}

	err := s.revocations.RevokeToken(ctx, &models.RevokedToken{
		TokenID:   session.TokenID,
		UserID:    session.UserID,
		Reason:    "logout",
		ExpiresAt: session.ExpiresTime(),
		RevokedAt: s.clock.Now(),
	})
	if err != nil {
		s.logger.Error("failed to revoke token", slog.String("token_id", session.TokenID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("user_id", session.UserID))
	return nil
}

// CheckPasswordStrength scores password with feedback in the closest
// supported language to lang.
func (s *AuthService) CheckPasswordStrength(lang, password string) pkgauth.PasswordAssessment {
	return pkgauth.ValidatePasswordStrengthIn(lang, password)
}

// RemainingAttempts reports how many failures email may still make
func (s *AuthService) RemainingAttempts(email string) int {
	return s.limiter.GetRemainingAttempts(NormalizeEmail(email))
}
