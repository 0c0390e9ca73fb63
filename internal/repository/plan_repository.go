package repository

import (
	"context"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"gorm.io/gorm"
)

// PlanRepository handles plan database operations
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create creates a new plan
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return wrapErr("failed to create plan", err)
	}
	return nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, wrapErr("failed to get plan", err)
	}
	return &plan, nil
}

// List retrieves all plans ordered by code
func (r *PlanRepository) List(ctx context.Context) ([]models.Plan, error) {
	plans := []models.Plan{}
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&plans).Error; err != nil {
		return nil, wrapErr("failed to list plans", err)
	}
	return plans, nil
}

// Update saves all plan fields
func (r *PlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	if err := r.db.WithContext(ctx).Save(plan).Error; err != nil {
		return wrapErr("failed to update plan", err)
	}
	return nil
}
