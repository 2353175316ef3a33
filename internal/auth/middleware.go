package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/BradenHooton/prospectiva/internal/models"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing the validated session in context
	SessionContextKey contextKey = "session"
)

// SessionChecker resolves a raw token to a valid session, or nil
type SessionChecker interface {
	ValidateSession(ctx context.Context, accessToken string) *models.Session
}

// UserRepository interface for fetching user data
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate rejects requests without a valid session and injects the
// session into the request context. The token is read from a Bearer
// Authorization header, falling back to the session cookie.
func Authenticate(checker SessionChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := ExtractToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "missing session token")
				return
			}

			session := checker.ValidateSession(r.Context(), token)
			if session == nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// ExtractToken returns the session token carried by r, if any
func ExtractToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if token, err := GetSessionCookie(r); err == nil && token != "" {
		return token, true
	}
	return "", false
}

// RequirePermission enforces role-based access control. The user's current
// role and status are read from the repository, so demotions and suspensions
// take effect before the session expires.
func RequirePermission(userRepo UserRepository, perm string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			user, err := userRepo.GetByID(r.Context(), session.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "user not found")
					return
				}
				pkghttp.WriteInternalError(w, "internal server error")
				return
			}

			if err := user.StatusError(); err != nil {
				pkghttp.WriteForbidden(w, err.Error())
				return
			}
			if !models.RoleHasPermission(user.Role, perm) {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a copy of ctx carrying session
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// SessionFromContext extracts the validated session from ctx
func SessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
