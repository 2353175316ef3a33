package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/pkg/auth"
	"github.com/BradenHooton/prospectiva/pkg/sanitize"
)

// ErrSelfModification is returned when an admin tries to lock themselves out
var ErrSelfModification = errors.New("admins cannot remove their own access")

// UserService handles admin user management
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// UserPage is one page of a user listing
type UserPage struct {
	Users  []*models.User `json:"users"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// ListUsers retrieves a page of users, newest first
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) (*UserPage, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &UserPage{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

// UpdateUser applies an admin's changes to another user. actorID is the
// admin making the change; admins cannot demote or deactivate themselves.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id string, update models.UserUpdate) (*models.User, error) {
	verr := models.NewValidationError()
	if update.Name != nil {
		name := sanitize.SanitizeInput(*update.Name)
		if name == "" {
			verr.Add("name", "Name cannot be empty")
		}
		update.Name = &name
	}
	if update.Role != nil && !models.IsValidRole(*update.Role) {
		verr.Add("role", "Role must be one of user, editor, admin")
	}
	if update.Status != nil && !models.IsValidStatus(*update.Status) {
		verr.Add("status", "Status must be one of active, suspended, disabled")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if actorID == id {
		if (update.Role != nil && *update.Role != models.RoleAdmin) ||
			(update.Status != nil && *update.Status != models.StatusActive) {
			s.logger.Warn("admin attempted to remove own access", slog.String("user_id", id))
			return nil, ErrSelfModification
		}
	}

	existing, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		existing.Name = *update.Name
	}
	if update.Role != nil {
		existing.Role = *update.Role
	}
	if update.Status != nil {
		existing.Status = *update.Status
	}

	updated, err := s.repo.Update(ctx, id, existing)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user updated",
		slog.String("user_id", id),
		slog.String("actor_id", actorID),
		slog.String("role", updated.Role),
		slog.String("status", updated.Status))
	return updated, nil
}

// DeleteUser deletes a user other than the acting admin
func (s *UserService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfModification
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.String("user_id", id), slog.String("actor_id", actorID))
	return nil
}

// EnsureAdmin creates the bootstrap admin account if no user has that email.
// An existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if assessment := auth.ValidatePasswordStrength(password); !assessment.IsValid {
		return models.NewValidationErrorFor("password", assessment.Feedback...)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	created, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
	})
	if err != nil {
		return err
	}

	s.logger.Info("bootstrap admin created", slog.String("user_id", created.ID))
	return nil
}
