package services

import (
	"context"
	"strings"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
)

// UserService manages user accounts
type UserService struct {
	users *repository.UserRepository
	audit *AuditService
}

// NewUserService creates a new user service
func NewUserService(users *repository.UserRepository, audit *AuditService) *UserService {
	return &UserService{users: users, audit: audit}
}

// Create registers an active user with a bcrypt password hash
func (s *UserService) Create(ctx context.Context, actor *authz.Principal, req models.UserRequest) (*models.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, invalid("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := HashSecret(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: email, Name: name, PasswordHash: hash, IsActive: true}
	err = s.users.Create(ctx, user)
	s.audit.Record(ctx, AuditEntry{Actor: actor, Action: "user.create", ResourceType: "user", ResourceID: user.ID, Err: err})
	if err != nil {
		return nil, conflictOr(err, "user "+email)
	}
	return user, nil
}

// List retrieves a page of users
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}
