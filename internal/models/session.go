package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is an authenticated session as seen by the rest of the service.
// IssuedAt and ExpiresAt are unix seconds. A zero ExpiresAt means the
// session carries no expiry.
type Session struct {
	AccessToken string `json:"-"`
	TokenID     string `json:"token_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	IssuedAt    int64  `json:"issued_at"`
	ExpiresAt   int64  `json:"expires_at"`
}

func (s *Session) ExpiresTime() time.Time {
	return time.Unix(s.ExpiresAt, 0)
}

// SessionClaims is the JWT payload backing a Session.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RevokedToken marks a token id as logged out until its natural expiry.
type RevokedToken struct {
	TokenID   string    `db:"token_id"`
	UserID    string    `db:"user_id"`
	Reason    string    `db:"reason"`
	ExpiresAt time.Time `db:"expires_at"`
	RevokedAt time.Time `db:"revoked_at"`
}
