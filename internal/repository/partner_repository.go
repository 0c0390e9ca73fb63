package repository

import (
	"context"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"gorm.io/gorm"
)

// PartnerRepository handles partner database operations
type PartnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// Create creates a new partner
func (r *PartnerRepository) Create(ctx context.Context, partner *models.Partner) error {
	if err := r.db.WithContext(ctx).Create(partner).Error; err != nil {
		return wrapErr("failed to create partner", err)
	}
	return nil
}

// GetByID retrieves a partner by ID
func (r *PartnerRepository) GetByID(ctx context.Context, id string) (*models.Partner, error) {
	var partner models.Partner
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&partner).Error; err != nil {
		return nil, wrapErr("failed to get partner", err)
	}
	return &partner, nil
}

// List retrieves partners ordered by name. A nil ids slice lists all partners.
func (r *PartnerRepository) List(ctx context.Context, ids []string) ([]models.Partner, error) {
	partners := []models.Partner{}
	query := r.db.WithContext(ctx).Order("name ASC")
	if ids != nil {
		if len(ids) == 0 {
			return partners, nil
		}
		query = query.Where("id IN ?", ids)
	}
	if err := query.Find(&partners).Error; err != nil {
		return nil, wrapErr("failed to list partners", err)
	}
	return partners, nil
}

// Update saves all partner fields
func (r *PartnerRepository) Update(ctx context.Context, partner *models.Partner) error {
	if err := r.db.WithContext(ctx).Save(partner).Error; err != nil {
		return wrapErr("failed to update partner", err)
	}
	return nil
}

// Delete removes a partner
func (r *PartnerRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Partner{})
	if res.Error != nil {
		return wrapErr("failed to delete partner", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("failed to delete partner", gorm.ErrRecordNotFound)
	}
	return nil
}

// CountTenants counts the tenants a partner owns in any status
func (r *PartnerRepository) CountTenants(ctx context.Context, id string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Tenant{}).Where("partner_id = ?", id).Count(&n).Error; err != nil {
		return 0, wrapErr("failed to count partner tenants", err)
	}
	return n, nil
}
