package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// TokenManager issues and parses signed session tokens
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	clock      clockwork.Clock
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, sessionTTL time.Duration, clock clockwork.Clock) *TokenManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenManager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		clock:      clock,
	}
}

// IssueSession creates a signed token for user and returns the session it encodes
func (tm *TokenManager) IssueSession(user *models.User) (*models.Session, error) {
	now := tm.clock.Now()
	expiresAt := now.Add(tm.sessionTTL)

	claims := &models.SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return sessionFromClaims(signed, claims), nil
}

// ParseSession verifies the token signature and returns the session it
// encodes. Expiry is NOT checked here: callers decide what an expired
// session means.
func (tm *TokenManager) ParseSession(tokenString string) (*models.Session, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithoutClaimsValidation(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, models.ErrUnauthorized
	}
	if claims.ID == "" || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("invalid token: missing required claims")
	}

	return sessionFromClaims(tokenString, claims), nil
}

func sessionFromClaims(token string, claims *models.SessionClaims) *models.Session {
	s := &models.Session{
		AccessToken: token,
		TokenID:     claims.ID,
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        claims.Role,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return s
}

// TokenRevocationChecker defines the interface for checking if tokens are revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ErrTokenRevoked is returned for a token that was logged out
var ErrTokenRevoked = errors.New("token has been revoked")

// TokenSessionProvider resolves bearer tokens to sessions: signature check
// through the TokenManager, then a revocation lookup.
type TokenSessionProvider struct {
	tokens      *TokenManager
	revocations TokenRevocationChecker
}

// NewTokenSessionProvider creates a new TokenSessionProvider. revocations may be nil.
func NewTokenSessionProvider(tokens *TokenManager, revocations TokenRevocationChecker) *TokenSessionProvider {
	return &TokenSessionProvider{tokens: tokens, revocations: revocations}
}

// GetSession returns the session for accessToken. An empty token yields no
// session and no error.
func (p *TokenSessionProvider) GetSession(ctx context.Context, accessToken string) (*models.Session, error) {
	if accessToken == "" {
		return nil, nil
	}

	session, err := p.tokens.ParseSession(accessToken)
	if err != nil {
		return nil, err
	}

	if p.revocations != nil {
		revoked, err := p.revocations.IsTokenRevoked(ctx, session.TokenID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return session, nil
}
