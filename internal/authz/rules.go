package authz

import "sort"

// Condition scopes an access rule to records whose Field relates to the
// principal's own tenant or partner. Conditions are descriptive: scoping is
// enforced by TenantAccessResolver.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// AccessRule is the grant for one role.
type AccessRule struct {
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	Conditions  []Condition  `json:"conditions,omitempty"`
}

// AccessRules is the immutable role to permission table. Build it once at
// startup with DefaultAccessRules and inject it where decisions are made.
type AccessRules struct {
	grants map[Role]map[Permission]struct{}
	rules  []AccessRule
}

// DefaultAccessRules returns the fixed control-plane rule table.
func DefaultAccessRules() *AccessRules {
	return NewAccessRules([]AccessRule{
		{
			Role:        RolePlatformAdmin,
			Permissions: AllPermissions(),
		},
		{
			Role: RolePartnerAdmin,
			Permissions: []Permission{
				PermPartnersRead,
				PermTenantsRead, PermTenantsWrite,
				PermDomainsRead, PermDomainsWrite, PermDomainsVerify,
				PermUsageRead,
			},
			Conditions: []Condition{{Field: "partner_id", Operator: "eq", Value: "$principal.partner_id"}},
		},
		{
			Role: RoleTenantAdmin,
			Permissions: []Permission{
				PermTenantsRead,
				PermDomainsRead, PermDomainsWrite,
				PermUsageRead,
			},
			Conditions: []Condition{{Field: "tenant_id", Operator: "eq", Value: "$principal.tenant_id"}},
		},
		{
			Role:        RoleTenantUser,
			Permissions: []Permission{PermTenantsRead, PermUsageRead},
			Conditions:  []Condition{{Field: "tenant_id", Operator: "eq", Value: "$principal.tenant_id"}},
		},
	})
}

// NewAccessRules builds a rule table from rules. The input is copied.
func NewAccessRules(rules []AccessRule) *AccessRules {
	ar := &AccessRules{
		grants: make(map[Role]map[Permission]struct{}, len(rules)),
		rules:  make([]AccessRule, 0, len(rules)),
	}
	for _, r := range rules {
		set, ok := ar.grants[r.Role]
		if !ok {
			set = make(map[Permission]struct{}, len(r.Permissions))
			ar.grants[r.Role] = set
		}
		for _, p := range r.Permissions {
			set[p] = struct{}{}
		}
		ar.rules = append(ar.rules, AccessRule{
			Role:        r.Role,
			Permissions: append([]Permission(nil), r.Permissions...),
			Conditions:  append([]Condition(nil), r.Conditions...),
		})
	}
	return ar
}

// HasPermission reports whether role is granted perm.
func (a *AccessRules) HasPermission(role Role, perm Permission) bool {
	set, ok := a.grants[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// Permissions returns the permissions granted to role, sorted.
func (a *AccessRules) Permissions(role Role) []Permission {
	set := a.grants[role]
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Rules returns a copy of the configured rules.
func (a *AccessRules) Rules() []AccessRule {
	out := make([]AccessRule, len(a.rules))
	for i, r := range a.rules {
		out[i] = AccessRule{
			Role:        r.Role,
			Permissions: append([]Permission(nil), r.Permissions...),
			Conditions:  append([]Condition(nil), r.Conditions...),
		}
	}
	return out
}
