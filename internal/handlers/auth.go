package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/prospectiva/internal/auth"
	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/internal/services"
	pkgauth "github.com/BradenHooton/prospectiva/pkg/auth"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
	"github.com/jonboulle/clockwork"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error)
	Logout(ctx context.Context, session *models.Session) error
	CheckPasswordStrength(lang, password string) pkgauth.PasswordAssessment
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
	cookies auth.CookieConfig
	clock   clockwork.Clock
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, cookies auth.CookieConfig, clock clockwork.Clock) *AuthHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AuthHandler{
		service: service,
		cookies: cookies,
		clock:   clock,
	}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=500"`
}

// PasswordStrengthRequest represents the request body for a strength check
type PasswordStrengthRequest struct {
	Password string `json:"password" validate:"max=128"`
}

// SessionResponse is returned after login and registration
type SessionResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   int64         `json:"expires_at"`
	User        *UserResponse `json:"user"`
}

// Login handles user login
// @Summary User login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAccountDisabled),
			errors.Is(err, models.ErrAccountSuspended):
			// Same response as bad credentials to prevent account enumeration
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			writeServiceError(w, h.clock.Now(), err)
		}
		return
	}

	h.writeSession(w, http.StatusOK, result)
}

// Register handles user registration
// @Summary User registration
// @Accept json
// @Param request body RegisterRequest true "Register request"
// @Produce json
// @Success 201 {object} SessionResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 409 {object} pkghttp.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Language: r.Header.Get("Accept-Language"),
	})
	if err != nil {
		writeServiceError(w, h.clock.Now(), err)
		return
	}

	h.writeSession(w, http.StatusCreated, result)
}

// PasswordStrength scores a candidate password with localized feedback
// @Router /auth/password-strength [post]
func (h *AuthHandler) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req PasswordStrengthRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	assessment := h.service.CheckPasswordStrength(r.Header.Get("Accept-Language"), req.Password)
	pkghttp.WriteJSON(w, http.StatusOK, assessment)
}

// Session returns the caller's validated session
// @Router /auth/session [get]
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, session)
}

// Logout revokes the current session and clears the cookie
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), session); err != nil {
		writeServiceError(w, h.clock.Now(), err)
		return
	}

	auth.ClearSessionCookie(w, h.cookies)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, result *services.AuthResult) {
	auth.SetSessionCookie(w, result.Session.AccessToken, result.Session.ExpiresTime(), h.clock.Now(), h.cookies)
	pkghttp.WriteJSON(w, status, SessionResponse{
		AccessToken: result.Session.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.Session.ExpiresAt,
		User:        userModelToResponse(result.User),
	})
}
