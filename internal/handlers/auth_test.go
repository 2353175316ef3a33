package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/prospectiva/internal/auth"
	"github.com/BradenHooton/prospectiva/internal/handlers"
	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/internal/services"
	pkgauth "github.com/BradenHooton/prospectiva/pkg/auth"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var authTestNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAuthHandler(svc *handlers.MockAuthService) *handlers.AuthHandler {
	return handlers.NewAuthHandler(svc, auth.CookieConfig{SameSite: "strict", Secure: true}, clockwork.NewFakeClockAt(authTestNow))
}

func testAuthResult() *services.AuthResult {
	user := &models.User{ID: "user123", Email: "user@example.com", Name: "Test User", Role: models.RoleUser, Status: models.StatusActive}
	return &services.AuthResult{
		User: user,
		Session: &models.Session{
			AccessToken: "signed.jwt.token",
			TokenID:     "jti-1",
			UserID:      user.ID,
			ExpiresAt:   authTestNow.Add(8 * time.Hour).Unix(),
		},
	}
}

func TestLogin_Success(t *testing.T) {
	var gotEmail string
	svc := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			gotEmail = email
			return testAuthResult(), nil
		},
	}
	req := handlers.NewTestRequest(t, "POST", "/auth/login", map[string]string{
		"email": "User@Example.com", "password": "Str0ng!Passw0rd",
	})
	w := httptest.NewRecorder()

	newTestAuthHandler(svc).Login(w, req)

	var resp handlers.SessionResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "User@Example.com", gotEmail, "normalization is the service's job")
	assert.Equal(t, "signed.jwt.token", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "user123", resp.User.ID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 8*3600, cookies[0].MaxAge)
}

func TestLogin_InvalidBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	newTestAuthHandler(&handlers.MockAuthService{}).Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestLogin_MissingFields(t *testing.T) {
	req := handlers.NewTestRequest(t, "POST", "/auth/login", map[string]string{})
	w := httptest.NewRecorder()

	newTestAuthHandler(&handlers.MockAuthService{}).Login(w, req)

	resp := handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "validation_failed")
	details, ok := resp.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestLogin_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad credentials", models.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"suspended looks like bad credentials", models.ErrAccountSuspended, http.StatusUnauthorized, "unauthorized"},
		{"disabled looks like bad credentials", models.ErrAccountDisabled, http.StatusUnauthorized, "unauthorized"},
		{"backend failure", models.ErrInternalServer, http.StatusInternalServerError, "internal_error"},
		{"unexpected error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &handlers.MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
					return nil, tt.err
				},
			}
			req := handlers.NewTestRequest(t, "POST", "/auth/login", map[string]string{"email": "a@b.co", "password": "x"})
			w := httptest.NewRecorder()

			newTestAuthHandler(svc).Login(w, req)

			handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	blockedUntil := authTestNow.Add(30 * time.Minute)
	svc := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			return nil, &models.RateLimitError{BlockedUntil: blockedUntil}
		},
	}
	req := handlers.NewTestRequest(t, "POST", "/auth/login", map[string]string{"email": "a@b.co", "password": "x"})
	w := httptest.NewRecorder()

	newTestAuthHandler(svc).Login(w, req)

	resp := handlers.AssertErrorResponse(t, w, http.StatusTooManyRequests, "rate_limit_exceeded")
	assert.Equal(t, "1800", w.Header().Get("Retry-After"))
	assert.Equal(t, map[string]interface{}{"blocked_until": "2025-03-01T12:30:00Z"}, resp.Details)
}

func TestRegister_Success(t *testing.T) {
	var got services.RegisterInput
	svc := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
			got = input
			return testAuthResult(), nil
		},
	}
	req := handlers.NewTestRequest(t, "POST", "/auth/register", map[string]string{
		"email": "user@example.com", "password": "Str0ng!Passw0rd", "name": "Test User",
	})
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	w := httptest.NewRecorder()

	newTestAuthHandler(svc).Register(w, req)

	var resp handlers.SessionResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "user123", resp.User.ID)
	assert.Equal(t, "en-US,en;q=0.9", got.Language)
	assert.Equal(t, "Test User", got.Name)
}

func TestRegister_ServiceValidationError(t *testing.T) {
	svc := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
			return nil, models.NewValidationErrorFor("password", "Debe incluir al menos un número")
		},
	}
	req := handlers.NewTestRequest(t, "POST", "/auth/register", map[string]string{
		"email": "user@example.com", "password": "weak", "name": "Test User",
	})
	w := httptest.NewRecorder()

	newTestAuthHandler(svc).Register(w, req)

	resp := handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "validation_failed")
	assert.Equal(t, map[string]interface{}{"password": []interface{}{"Debe incluir al menos un número"}}, resp.Details)
}

func TestRegister_Conflict(t *testing.T) {
	req := handlers.NewTestRequest(t, "POST", "/auth/register", map[string]string{
		"email": "user@example.com", "password": "Str0ng!Passw0rd", "name": "Test User",
	})
	w := httptest.NewRecorder()

	newTestAuthHandler(&handlers.MockAuthService{}).Register(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusConflict, "conflict")
}

func TestPasswordStrength_UsesAcceptLanguage(t *testing.T) {
	req := handlers.NewTestRequest(t, "POST", "/auth/password-strength", map[string]string{"password": "abc"})
	req.Header.Set("Accept-Language", "en")
	w := httptest.NewRecorder()

	newTestAuthHandler(&handlers.MockAuthService{}).PasswordStrength(w, req)

	var resp pkgauth.PasswordAssessment
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.False(t, resp.IsValid)
	assert.Contains(t, resp.Feedback, "Password is too short")
}

func TestSession_ReturnsContextSession(t *testing.T) {
	req := handlers.WithSessionContext(httptest.NewRequest("GET", "/auth/session", nil), "user123", "user@example.com", models.RoleEditor)
	w := httptest.NewRecorder()

	newTestAuthHandler(&handlers.MockAuthService{}).Session(w, req)

	var resp models.Session
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "user123", resp.UserID)
	assert.Equal(t, models.RoleEditor, resp.Role)
}

func TestSession_NoSession(t *testing.T) {
	w := httptest.NewRecorder()

	newTestAuthHandler(&handlers.MockAuthService{}).Session(w, httptest.NewRequest("GET", "/auth/session", nil))

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestLogout(t *testing.T) {
	var revoked *models.Session
	svc := &handlers.MockAuthService{
		LogoutFunc: func(ctx context.Context, session *models.Session) error {
			revoked = session
			return nil
		},
	}
	req := handlers.WithSessionContext(httptest.NewRequest("POST", "/auth/logout", nil), "user123", "user@example.com", models.RoleUser)
	w := httptest.NewRecorder()

	newTestAuthHandler(svc).Logout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, revoked)
	assert.Equal(t, "test-token-id", revoked.TokenID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestLogout_RevocationFailure(t *testing.T) {
	svc := &handlers.MockAuthService{
		LogoutFunc: func(ctx context.Context, session *models.Session) error {
			return models.ErrInternalServer
		},
	}
	req := handlers.WithSessionContext(httptest.NewRequest("POST", "/auth/logout", nil), "user123", "user@example.com", models.RoleUser)
	w := httptest.NewRecorder()

	newTestAuthHandler(svc).Logout(w, req)

	var resp pkghttp.ErrorResponse
	handlers.AssertJSONResponse(t, w, http.StatusInternalServerError, &resp)
	assert.Empty(t, w.Result().Cookies(), "cookie is kept when the token could not be revoked")
}
