package repository

import (
	"context"
	"strings"
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrapErr("failed to create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrapErr("failed to get user", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, wrapErr("failed to get user", err)
	}
	return &user, nil
}

// List retrieves users ordered by email
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	users := []models.User{}
	query := r.db.WithContext(ctx).Order("email ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, wrapErr("failed to list users", err)
	}
	return users, nil
}

// APIClientRepository handles API client database operations
type APIClientRepository struct {
	db *gorm.DB
}

// NewAPIClientRepository creates a new API client repository
func NewAPIClientRepository(db *gorm.DB) *APIClientRepository {
	return &APIClientRepository{db: db}
}

// Create creates a new API client
func (r *APIClientRepository) Create(ctx context.Context, client *models.APIClient) error {
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return wrapErr("failed to create api client", err)
	}
	return nil
}

// GetByID retrieves an API client by client ID
func (r *APIClientRepository) GetByID(ctx context.Context, clientID string) (*models.APIClient, error) {
	var client models.APIClient
	if err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&client).Error; err != nil {
		return nil, wrapErr("failed to get api client", err)
	}
	return &client, nil
}

// TouchLastUsed stamps the client's last use
func (r *APIClientRepository) TouchLastUsed(ctx context.Context, clientID string, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.APIClient{}).
		Where("client_id = ?", clientID).
		Update("last_used_at", at).Error; err != nil {
		return wrapErr("failed to update api client", err)
	}
	return nil
}
