package authz

import (
	"context"
	"fmt"
	"time"
)

// DefaultLookupTimeout bounds the repository lookups of a single access check.
const DefaultLookupTimeout = 2 * time.Second

// Membership binds a principal to one tenant with one role.
type Membership struct {
	PrincipalID string
	TenantID    string
	Role        Role
}

// MembershipStore is the read side of the membership graph. Implementations
// must read through to the database; results back security decisions and
// must not be served from a cache.
type MembershipStore interface {
	// FindMembership returns the principal's membership on tenantID, or nil if none exists.
	FindMembership(ctx context.Context, principalID, tenantID string) (*Membership, error)
	// FindMemberships returns every membership of the principal in creation order.
	FindMemberships(ctx context.Context, principalID string) ([]Membership, error)
	// FindPartnerTenants returns the ids of the partner's ACTIVE tenants.
	FindPartnerTenants(ctx context.Context, partnerID string) ([]string, error)
	// FindTenantPartner returns the partner owning tenantID, or "" if the tenant does not exist.
	FindTenantPartner(ctx context.Context, tenantID string) (string, error)
}

// LookupObserver receives the outcome and latency of each access check.
type LookupObserver interface {
	ObserveTenantLookup(result string, elapsed time.Duration)
}

// TenantAccessResolver decides tenant reachability over the membership graph.
type TenantAccessResolver struct {
	store    MembershipStore
	timeout  time.Duration
	observer LookupObserver
}

// ResolverOption configures a TenantAccessResolver.
type ResolverOption func(*TenantAccessResolver)

// WithLookupTimeout overrides DefaultLookupTimeout.
func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *TenantAccessResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLookupObserver reports lookup outcomes to o.
func WithLookupObserver(o LookupObserver) ResolverOption {
	return func(r *TenantAccessResolver) {
		r.observer = o
	}
}

// NewTenantAccessResolver returns a resolver reading from store.
func NewTenantAccessResolver(store MembershipStore, opts ...ResolverOption) *TenantAccessResolver {
	r := &TenantAccessResolver{
		store:   store,
		timeout: DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CanAccessTenant reports whether p may act on tenantID.
//
//   - PLATFORM_ADMIN reaches every tenant.
//   - A PARTNER_ADMIN membership on any tenant of a partner reaches all of
//     that partner's active tenants.
//   - A TENANT_ADMIN or TENANT_USER membership reaches exactly its tenant.
//
// A lookup failure returns false together with the error.
func (r *TenantAccessResolver) CanAccessTenant(ctx context.Context, p *Principal, tenantID string) (bool, error) {
	if p == nil || tenantID == "" {
		return false, nil
	}
	switch p.Role {
	case RolePlatformAdmin:
		return true, nil
	case RolePartnerAdmin, RoleTenantAdmin, RoleTenantUser:
	default:
		return false, nil
	}

	start := time.Now()
	ok, err := r.membershipGrant(ctx, p.ID, tenantID)
	r.observe(ok, err, start)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *TenantAccessResolver) membershipGrant(ctx context.Context, principalID, tenantID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	direct, err := r.store.FindMembership(ctx, principalID, tenantID)
	if err != nil {
		return false, fmt.Errorf("failed to find membership: %w", err)
	}
	if direct != nil && (direct.Role == RoleTenantAdmin || direct.Role == RoleTenantUser) {
		return true, nil
	}

	partners, err := r.adminPartners(ctx, principalID)
	if err != nil {
		return false, err
	}
	for _, partnerID := range partners {
		tenants, err := r.store.FindPartnerTenants(ctx, partnerID)
		if err != nil {
			return false, fmt.Errorf("failed to find tenants of partner %s: %w", partnerID, err)
		}
		for _, id := range tenants {
			if id == tenantID {
				return true, nil
			}
		}
	}
	return false, nil
}

// adminPartners returns the distinct partners the principal administers
// through PARTNER_ADMIN memberships. A PLATFORM_ADMIN membership row is
// scoped like PARTNER_ADMIN.
func (r *TenantAccessResolver) adminPartners(ctx context.Context, principalID string) ([]string, error) {
	memberships, err := r.store.FindMemberships(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find memberships: %w", err)
	}

	seen := make(map[string]bool)
	var partners []string
	for _, m := range memberships {
		if m.Role != RolePartnerAdmin && m.Role != RolePlatformAdmin {
			continue
		}
		partnerID, err := r.store.FindTenantPartner(ctx, m.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to find partner of tenant %s: %w", m.TenantID, err)
		}
		if partnerID == "" || seen[partnerID] {
			continue
		}
		seen[partnerID] = true
		partners = append(partners, partnerID)
	}
	return partners, nil
}

// CanAccessPartner reports whether p administers partnerID.
func (r *TenantAccessResolver) CanAccessPartner(ctx context.Context, p *Principal, partnerID string) (bool, error) {
	if p == nil || partnerID == "" {
		return false, nil
	}
	if p.Role == RolePlatformAdmin {
		return true, nil
	}
	if !p.Role.Valid() {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	partners, err := r.adminPartners(ctx, p.ID)
	if err != nil {
		return false, err
	}
	for _, id := range partners {
		if id == partnerID {
			return true, nil
		}
	}
	return false, nil
}

// AdministeredPartners returns the partners p administers. all is true for
// PLATFORM_ADMIN, in which case ids is nil.
func (r *TenantAccessResolver) AdministeredPartners(ctx context.Context, p *Principal) (ids []string, all bool, err error) {
	if p == nil || !p.Role.Valid() {
		return nil, false, nil
	}
	if p.Role == RolePlatformAdmin {
		return nil, true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ids, err = r.adminPartners(ctx, p.ID)
	return ids, false, err
}

// AccessibleTenants returns every tenant p can reach. all is true for
// PLATFORM_ADMIN, in which case ids is nil.
func (r *TenantAccessResolver) AccessibleTenants(ctx context.Context, p *Principal) (ids []string, all bool, err error) {
	if p == nil || !p.Role.Valid() {
		return nil, false, nil
	}
	if p.Role == RolePlatformAdmin {
		return nil, true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	memberships, err := r.store.FindMemberships(ctx, p.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find memberships: %w", err)
	}

	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, m := range memberships {
		if m.Role == RoleTenantAdmin || m.Role == RoleTenantUser {
			add(m.TenantID)
		}
	}

	partners, err := r.adminPartners(ctx, p.ID)
	if err != nil {
		return nil, false, err
	}
	for _, partnerID := range partners {
		tenants, err := r.store.FindPartnerTenants(ctx, partnerID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to find tenants of partner %s: %w", partnerID, err)
		}
		for _, id := range tenants {
			add(id)
		}
	}
	return ids, false, nil
}

func (r *TenantAccessResolver) observe(ok bool, err error, start time.Time) {
	if r.observer == nil {
		return
	}
	result := "deny"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "allow"
	}
	r.observer.ObserveTenantLookup(result, time.Since(start))
}
