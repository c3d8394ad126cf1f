package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/database"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProfileExists = errors.New("user profile already exists")
	ErrEmailRequired = &ValidationError{Message: "Email is required"}
)

// AuthService handles authentication related business logic. Credentials
// are held by the identity provider; this service only maps a verified
// subject to its user profile.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// Authenticate resolves the principal for a verified subject. Unknown
// subjects and inactive accounts are rejected.
func (s *AuthService) Authenticate(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// RegisterInput holds the profile of a newly verified subject.
type RegisterInput struct {
	ID       string
	Email    string
	FullName string
}

// Register creates the profile of a verified subject. New profiles always
// start as Viewer; privileged roles are granted afterwards.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	if _, err := s.userRepo.FindByID(ctx, input.ID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check profile: %w", err)
	}

	user := &models.User{
		Email:    email,
		FullName: strings.TrimSpace(input.FullName),
		Role:     models.RoleViewer,
		IsActive: true,
	}
	user.ID = input.ID

	if err := s.userRepo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "find user")
	}

	return user, nil
}
