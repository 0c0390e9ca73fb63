package repository

import (
	"context"
	"strings"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"gorm.io/gorm"
)

// DomainRepository handles custom domain database operations
type DomainRepository struct {
	db *gorm.DB
}

// NewDomainRepository creates a new domain repository
func NewDomainRepository(db *gorm.DB) *DomainRepository {
	return &DomainRepository{db: db}
}

// Create creates a new domain
func (r *DomainRepository) Create(ctx context.Context, domain *models.Domain) error {
	domain.Hostname = strings.ToLower(domain.Hostname)
	if err := r.db.WithContext(ctx).Create(domain).Error; err != nil {
		return wrapErr("failed to create domain", err)
	}
	return nil
}

// GetByID retrieves a domain by ID
func (r *DomainRepository) GetByID(ctx context.Context, id string) (*models.Domain, error) {
	var domain models.Domain
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&domain).Error; err != nil {
		return nil, wrapErr("failed to get domain", err)
	}
	return &domain, nil
}

// GetVerifiedByHostname retrieves a verified domain by hostname
func (r *DomainRepository) GetVerifiedByHostname(ctx context.Context, hostname string) (*models.Domain, error) {
	var domain models.Domain
	if err := r.db.WithContext(ctx).
		Where("hostname = ? AND status = ?", strings.ToLower(hostname), models.DomainStatusVerified).
		First(&domain).Error; err != nil {
		return nil, wrapErr("failed to get domain", err)
	}
	return &domain, nil
}

// ListByTenants retrieves domains of the given tenants. A nil slice lists all domains.
func (r *DomainRepository) ListByTenants(ctx context.Context, tenantIDs []string) ([]models.Domain, error) {
	domains := []models.Domain{}
	query := r.db.WithContext(ctx).Order("is_primary DESC, hostname ASC")
	if tenantIDs != nil {
		if len(tenantIDs) == 0 {
			return domains, nil
		}
		query = query.Where("tenant_id IN ?", tenantIDs)
	}
	if err := query.Find(&domains).Error; err != nil {
		return nil, wrapErr("failed to list domains", err)
	}
	return domains, nil
}

// Update saves all domain fields
func (r *DomainRepository) Update(ctx context.Context, domain *models.Domain) error {
	if err := r.db.WithContext(ctx).Save(domain).Error; err != nil {
		return wrapErr("failed to update domain", err)
	}
	return nil
}

// Delete removes a domain
func (r *DomainRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Domain{})
	if res.Error != nil {
		return wrapErr("failed to delete domain", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("failed to delete domain", gorm.ErrRecordNotFound)
	}
	return nil
}

// CountByTenant counts a tenant's domains
func (r *DomainRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Domain{}).Where("tenant_id = ?", tenantID).Count(&n).Error; err != nil {
		return 0, wrapErr("failed to count domains", err)
	}
	return n, nil
}
