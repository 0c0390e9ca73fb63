package authz

import "context"

// TenantContext is one tenant membership embedded in a token.
type TenantContext struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	TenantType string `json:"tenant_type"`
	Role       Role   `json:"role"`
}

// Principal is the authenticated actor of a request. It is rebuilt from a
// verified token and never mutated afterwards.
type Principal struct {
	ID          string
	Email       string
	Role        Role
	Memberships []TenantContext
}

// IsPlatformAdmin reports whether the principal holds the global admin role.
func (p *Principal) IsPlatformAdmin() bool {
	return p != nil && p.Role == RolePlatformAdmin
}

// TenantIDs returns the ids of every tenant in the principal's token context.
func (p *Principal) TenantIDs() []string {
	ids := make([]string, 0, len(p.Memberships))
	for _, m := range p.Memberships {
		ids = append(ids, m.TenantID)
	}
	return ids
}

type contextKey int

const principalKey contextKey = iota

// ContextWithPrincipal returns a copy of ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal stored by the authorization
// middleware, or nil on public routes.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
