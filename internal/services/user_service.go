package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
)

var (
	ErrOwnerProtected = errors.New("owner accounts cannot be modified")

	ErrInvalidRole = &ValidationError{Message: "Invalid role"}
)

// UserService handles the user directory and role administration
type UserService struct {
	repo  repository.UserRepository
	audit *AuditService
}

// NewUserService creates a new UserService
func NewUserService(repo repository.UserRepository, audit *AuditService) *UserService {
	return &UserService{repo: repo, audit: audit}
}

// SearchUsers lists active users whose name or email matches term
func (s *UserService) SearchUsers(ctx context.Context, term string) ([]models.User, error) {
	users, err := s.repo.Search(ctx, repository.UserFilter{
		Search:     term,
		ActiveOnly: true,
		Limit:      constants.MaxUserSearchResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// UpdateRole changes the role of a user. The Owner role can neither be
// granted nor taken away here.
func (s *UserService) UpdateRole(ctx context.Context, actor *models.User, id string, role models.Role) (*models.User, error) {
	if !actor.Role.In(models.AdministratorRoles...) {
		return nil, ErrPermissionDenied
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if role == models.RoleOwner {
		return nil, ErrOwnerProtected
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "find user")
	}
	if target.Role == models.RoleOwner {
		return nil, ErrOwnerProtected
	}
	if target.Role == role {
		return target, nil
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	s.audit.Log(ctx, actor.ID, "role_changed", "user", id, map[string]any{
		"from": target.Role,
		"to":   role,
	})

	target.Role = role
	return target, nil
}

// Deactivate marks a user inactive. Owners cannot be deactivated.
func (s *UserService) Deactivate(ctx context.Context, actor *models.User, id string) error {
	if !actor.Role.In(models.AdministratorRoles...) {
		return ErrPermissionDenied
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrUserNotFound, "find user")
	}
	if target.Role == models.RoleOwner {
		return ErrOwnerProtected
	}
	if !target.IsActive {
		return nil
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	s.audit.Log(ctx, actor.ID, "deactivate", "user", id, nil)
	return nil
}
