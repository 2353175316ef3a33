package routes_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/prospectiva/internal/auth"
	"github.com/BradenHooton/prospectiva/internal/handlers"
	"github.com/BradenHooton/prospectiva/internal/middleware"
	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/internal/routes"
	"github.com/BradenHooton/prospectiva/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// staticSessions accepts exactly one token per user id
type staticSessions map[string]*models.Session

func (s staticSessions) ValidateSession(ctx context.Context, token string) *models.Session {
	return s[token]
}

func newTestRouter() chi.Router {
	users := map[string]*models.User{
		"u-user":   {ID: "u-user", Role: models.RoleUser, Status: models.StatusActive},
		"u-editor": {ID: "u-editor", Role: models.RoleEditor, Status: models.StatusActive},
		"u-admin":  {ID: "u-admin", Role: models.RoleAdmin, Status: models.StatusActive},
	}
	userRepo := &services.MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if u, ok := users[id]; ok {
				return u, nil
			}
			return nil, models.ErrNotFound
		},
	}
	sessions := staticSessions{}
	for id, u := range users {
		sessions["token-"+id] = &models.Session{TokenID: id, UserID: id, Role: u.Role}
	}

	h := routes.Handlers{
		Auth:       handlers.NewAuthHandler(&handlers.MockAuthService{}, auth.CookieConfig{}, nil),
		Users:      handlers.NewUserHandler(&handlers.MockUserService{}),
		Techniques: handlers.NewTechniqueHandler(&handlers.MockTechniqueService{}),
		AccessLogs: handlers.NewAccessLogHandler(&handlers.MockAccessLogService{}),
		Health:     handlers.NewHealthHandler(&handlers.MockHealthChecker{}),
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return routes.NewRouter(routes.RouterConfig{
		Env:           "development",
		AuthRateLimit: middleware.RateLimitConfig{RequestsPerMinute: 100},
	}, h, sessions, userRepo, logger)
}

func TestRouter_Access(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", "GET", "/health", "", http.StatusOK},
		{"catalog is public", "GET", "/techniques", "", http.StatusOK},
		{"stats are public", "GET", "/techniques/stats", "", http.StatusOK},
		{"session needs a token", "GET", "/auth/session", "", http.StatusUnauthorized},
		{"session with token", "GET", "/auth/session", "token-u-user", http.StatusOK},
		{"unknown token", "GET", "/auth/session", "forged", http.StatusUnauthorized},
		{"user cannot create techniques", "POST", "/techniques", "token-u-user", http.StatusForbidden},
		{"editor reaches create", "POST", "/techniques", "token-u-editor", http.StatusBadRequest},
		{"editor cannot list users", "GET", "/users", "token-u-editor", http.StatusForbidden},
		{"admin lists users", "GET", "/users", "token-u-admin", http.StatusOK},
		{"user cannot read access logs", "GET", "/admin/access-logs", "token-u-user", http.StatusForbidden},
		{"admin reads access logs", "GET", "/admin/access-logs", "token-u-admin", http.StatusOK},
		{"admin reads access log stats", "GET", "/admin/access-logs/stats", "token-u-admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_AppliesSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest("GET", "/techniques", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
