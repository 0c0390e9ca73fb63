package repository

import (
	"context"
	"errors"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"gorm.io/gorm"
)

// MembershipRepository handles membership database operations. It reads
// through to the database on every call and backs authz.TenantAccessResolver.
type MembershipRepository struct {
	db *gorm.DB
}

var _ authz.MembershipStore = (*MembershipRepository)(nil)

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create creates a new membership
func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return wrapErr("failed to create membership", err)
	}
	return nil
}

// Delete removes a user's membership on a tenant
func (r *MembershipRepository) Delete(ctx context.Context, userID, tenantID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND tenant_id = ?", userID, tenantID).Delete(&models.Membership{})
	if res.Error != nil {
		return wrapErr("failed to delete membership", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr("failed to delete membership", gorm.ErrRecordNotFound)
	}
	return nil
}

// ListByTenant retrieves a tenant's memberships in creation order
func (r *MembershipRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.Membership, error) {
	memberships := []models.Membership{}
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC, id ASC").
		Find(&memberships).Error; err != nil {
		return nil, wrapErr("failed to list memberships", err)
	}
	return memberships, nil
}

// ListByUser retrieves a user's memberships in creation order with their tenants loaded
func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]models.Membership, error) {
	memberships := []models.Membership{}
	if err := r.db.WithContext(ctx).
		Preload("Tenant").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&memberships).Error; err != nil {
		return nil, wrapErr("failed to list memberships", err)
	}
	return memberships, nil
}

// CountByTenant counts a tenant's members
func (r *MembershipRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Membership{}).Where("tenant_id = ?", tenantID).Count(&n).Error; err != nil {
		return 0, wrapErr("failed to count memberships", err)
	}
	return n, nil
}

// FindMembership implements authz.MembershipStore
func (r *MembershipRepository) FindMembership(ctx context.Context, principalID, tenantID string) (*authz.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", principalID, tenantID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("failed to find membership", err)
	}
	return &authz.Membership{PrincipalID: m.UserID, TenantID: m.TenantID, Role: m.Role}, nil
}

// FindMemberships implements authz.MembershipStore
func (r *MembershipRepository) FindMemberships(ctx context.Context, principalID string) ([]authz.Membership, error) {
	var rows []models.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", principalID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, wrapErr("failed to find memberships", err)
	}
	out := make([]authz.Membership, 0, len(rows))
	for _, m := range rows {
		out = append(out, authz.Membership{PrincipalID: m.UserID, TenantID: m.TenantID, Role: m.Role})
	}
	return out, nil
}

// FindPartnerTenants implements authz.MembershipStore
func (r *MembershipRepository) FindPartnerTenants(ctx context.Context, partnerID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("partner_id = ? AND status = ?", partnerID, models.TenantStatusActive).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, wrapErr("failed to find partner tenants", err)
	}
	return ids, nil
}

// FindTenantPartner implements authz.MembershipStore
func (r *MembershipRepository) FindTenantPartner(ctx context.Context, tenantID string) (string, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Select("partner_id").Where("id = ?", tenantID).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", wrapErr("failed to find tenant partner", err)
	}
	return tenant.PartnerID, nil
}
