// Package authz is the authorization core of the control plane.
//
// It issues and verifies bearer tokens carrying a principal's tenant context,
// holds the role to permission table, classifies inbound requests into the
// permission they require and decides whether a principal may act on a
// specific tenant.
//
// # Decision pipeline
//
// Engine.Authorize runs once per request, before any handler mutates state:
//
//  1. public paths are allowed without credentials
//  2. the bearer token is verified (TOKEN_INVALID / TOKEN_EXPIRED)
//  3. the request is classified and the role's permission set consulted (FORBIDDEN)
//  4. requests targeting /tenants/{id} are checked against the membership graph
//
// Repository failures during step 4 surface as INTERNAL_ERROR and are never
// reported as FORBIDDEN.
//
// # Thread Safety
//
// AccessRules, TokenIssuer, TenantAccessResolver and Engine hold no mutable
// state after construction and are safe for concurrent use.
package authz
