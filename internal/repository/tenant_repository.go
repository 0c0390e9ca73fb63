package repository

import (
	"context"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"gorm.io/gorm"
)

// TenantFilter narrows a tenant listing. A nil IDs slice does not filter by id.
type TenantFilter struct {
	IDs       []string
	PartnerID string
	Status    models.TenantStatus
}

// TenantRepository handles tenant database operations
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return wrapErr("failed to create tenant", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, wrapErr("failed to get tenant", err)
	}
	return &tenant, nil
}

// List retrieves tenants matching filter, ordered by creation time
func (r *TenantRepository) List(ctx context.Context, filter TenantFilter) ([]models.Tenant, error) {
	tenants := []models.Tenant{}
	query := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return tenants, nil
		}
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.PartnerID != "" {
		query = query.Where("partner_id = ?", filter.PartnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if err := query.Find(&tenants).Error; err != nil {
		return nil, wrapErr("failed to list tenants", err)
	}
	return tenants, nil
}

// Update saves all tenant fields
func (r *TenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	if err := r.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return wrapErr("failed to update tenant", err)
	}
	return nil
}

// Delete removes a tenant with its memberships, API clients and domains
func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Membership{}, &models.APIClient{}, &models.Domain{}} {
			if err := tx.Where("tenant_id = ?", id).Delete(model).Error; err != nil {
				return wrapErr("failed to delete tenant dependents", err)
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.Tenant{})
		if res.Error != nil {
			return wrapErr("failed to delete tenant", res.Error)
		}
		if res.RowsAffected == 0 {
			return wrapErr("failed to delete tenant", gorm.ErrRecordNotFound)
		}
		return nil
	})
}
