package authz

import (
	"net/http"
	"strings"
)

// RequirementKind tags the result of classifying a request.
type RequirementKind int

const (
	// RequirementPublic means no permission is needed.
	RequirementPublic RequirementKind = iota
	// RequirementPermission means Requirement.Permission must be held.
	RequirementPermission
)

// Requirement is what a request needs before it may reach a handler.
type Requirement struct {
	Kind       RequirementKind
	Permission Permission
}

// Public reports whether the requirement is the public (no permission) arm.
func (r Requirement) Public() bool {
	return r.Kind == RequirementPublic
}

func public() Requirement {
	return Requirement{Kind: RequirementPublic}
}

func requires(p Permission) Requirement {
	return Requirement{Kind: RequirementPermission, Permission: p}
}

// AdminDashboardPath is the admin prefix classified as a usage read.
const AdminDashboardPath = "/admin/dashboard"

// Classify maps an HTTP method and path to the permission it requires.
// Rules are checked in order; the first matching prefix wins.
func Classify(method, path string) Requirement {
	switch {
	case strings.HasPrefix(path, "/partners"):
		return crud(method, PermPartnersRead, PermPartnersWrite, PermPartnersDelete)
	case strings.HasPrefix(path, "/tenants"):
		return crud(method, PermTenantsRead, PermTenantsWrite, PermTenantsDelete)
	case strings.HasPrefix(path, "/plans"):
		if IsWriteVerb(method) {
			return requires(PermPlansWrite)
		}
		return requires(PermPlansRead)
	case strings.HasPrefix(path, "/domains"):
		if hasSegment(path, "verify") {
			return requires(PermDomainsVerify)
		}
		if IsWriteVerb(method) {
			return requires(PermDomainsWrite)
		}
		return requires(PermDomainsRead)
	case strings.HasPrefix(path, "/usage"), strings.HasPrefix(path, AdminDashboardPath):
		// Recording usage is a POST under /usage and still only needs usage:read.
		return requires(PermUsageRead)
	case strings.HasPrefix(path, "/system"), strings.HasPrefix(path, "/admin"):
		if IsWriteVerb(method) {
			return requires(PermSystemWrite)
		}
		return requires(PermSystemRead)
	default:
		// Unmatched paths fail open.
		return public()
	}
}

func crud(method string, read, write, del Permission) Requirement {
	if strings.EqualFold(method, http.MethodDelete) {
		return requires(del)
	}
	if IsWriteVerb(method) {
		return requires(write)
	}
	return requires(read)
}

// IsWriteVerb reports whether method creates, updates or deletes.
func IsWriteVerb(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// TargetTenant returns the tenant id addressed by path: the segment after
// the first "tenants" segment, as in /tenants/{id} or /usage/tenants/{id}.
func TargetTenant(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p == "tenants" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func hasSegment(path, segment string) bool {
	for _, p := range strings.Split(path, "/") {
		if p == segment {
			return true
		}
	}
	return false
}
