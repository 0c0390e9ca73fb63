package authz

// Role is the role asserted in a token or held in a tenant membership.
type Role string

const (
	RolePlatformAdmin Role = "PLATFORM_ADMIN"
	RolePartnerAdmin  Role = "PARTNER_ADMIN"
	RoleTenantAdmin   Role = "TENANT_ADMIN"
	RoleTenantUser    Role = "TENANT_USER"
)

// Roles lists every valid role, most privileged first.
func Roles() []Role {
	return []Role{RolePlatformAdmin, RolePartnerAdmin, RoleTenantAdmin, RoleTenantUser}
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePlatformAdmin, RolePartnerAdmin, RoleTenantAdmin, RoleTenantUser:
		return true
	}
	return false
}

// ValidMembershipRole reports whether r may be stored on a tenant membership.
// PLATFORM_ADMIN is global and is never granted per tenant.
func (r Role) ValidMembershipRole() bool {
	return r.Valid() && r != RolePlatformAdmin
}

// Permission is a resource:verb capability tag.
type Permission string

const (
	PermPartnersRead   Permission = "partners:read"
	PermPartnersWrite  Permission = "partners:write"
	PermPartnersDelete Permission = "partners:delete"
	PermTenantsRead    Permission = "tenants:read"
	PermTenantsWrite   Permission = "tenants:write"
	PermTenantsDelete  Permission = "tenants:delete"
	PermPlansRead      Permission = "plans:read"
	PermPlansWrite     Permission = "plans:write"
	PermDomainsRead    Permission = "domains:read"
	PermDomainsWrite   Permission = "domains:write"
	PermDomainsVerify  Permission = "domains:verify"
	PermUsageRead      Permission = "usage:read"
	PermSystemRead     Permission = "system:read"
	PermSystemWrite    Permission = "system:write"
)

// AllPermissions returns the closed permission catalog in a stable order.
func AllPermissions() []Permission {
	return []Permission{
		PermPartnersRead, PermPartnersWrite, PermPartnersDelete,
		PermTenantsRead, PermTenantsWrite, PermTenantsDelete,
		PermPlansRead, PermPlansWrite,
		PermDomainsRead, PermDomainsWrite, PermDomainsVerify,
		PermUsageRead,
		PermSystemRead, PermSystemWrite,
	}
}
