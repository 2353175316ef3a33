package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/prospectiva/internal/auth"
	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/internal/services"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// UserService defines the interface for user business logic
type UserService interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) (*services.UserPage, error)
	UpdateUser(ctx context.Context, actorID, id string, update models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, id string) error
}

// UserHandler handles admin user management requests
type UserHandler struct {
	service UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// UpdateUserRequest represents the request body for updating a user.
// Omitted fields are left unchanged.
type UpdateUserRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=500"`
	Role   *string `json:"role" validate:"omitempty,oneof=user editor admin"`
	Status *string `json:"status" validate:"omitempty,oneof=active suspended disabled"`
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ListUsersResponse represents a page of users
type ListUsersResponse struct {
	Users  []*UserResponse `json:"users"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// userModelToResponse converts a user model to a response DTO
func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

// pagination reads limit and offset query parameters, clamping bad values
func pagination(r *http.Request, def, maxLimit int) (limit, offset int) {
	limit = def
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxLimit)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, defaultPageSize, maxPageSize)

	page, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, time.Now(), err)
		return
	}

	resp := ListUsersResponse{
		Users:  make([]*UserResponse, 0, len(page.Users)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, u := range page.Users {
		resp.Users = append(resp.Users, userModelToResponse(u))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// GetUser handles GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, time.Now(), err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// UpdateUser handles PUT /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), session.UserID, chi.URLParam(r, "id"), models.UserUpdate{
		Name:   req.Name,
		Role:   req.Role,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, services.ErrSelfModification) {
			pkghttp.WriteForbidden(w, err.Error())
			return
		}
		writeServiceError(w, time.Now(), err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// DeleteUser handles DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.DeleteUser(r.Context(), session.UserID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, services.ErrSelfModification) {
			pkghttp.WriteForbidden(w, err.Error())
			return
		}
		writeServiceError(w, time.Now(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
