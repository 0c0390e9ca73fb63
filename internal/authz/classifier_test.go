package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		path   string
		want   Requirement
	}{
		{"GET", "/partners", requires(PermPartnersRead)},
		{"GET", "/partners/p1", requires(PermPartnersRead)},
		{"POST", "/partners", requires(PermPartnersWrite)},
		{"PUT", "/partners/p1", requires(PermPartnersWrite)},
		{"PATCH", "/partners/p1/status", requires(PermPartnersWrite)},
		{"DELETE", "/partners/p1", requires(PermPartnersDelete)},

		{"GET", "/tenants", requires(PermTenantsRead)},
		{"GET", "/tenants/t1/members", requires(PermTenantsRead)},
		{"POST", "/tenants", requires(PermTenantsWrite)},
		{"PUT", "/tenants/t1", requires(PermTenantsWrite)},
		{"delete", "/tenants/t1", requires(PermTenantsDelete)},
		{"DELETE", "/tenants/t1/members/u1", requires(PermTenantsDelete)},

		{"GET", "/plans", requires(PermPlansRead)},
		{"POST", "/plans", requires(PermPlansWrite)},
		{"DELETE", "/plans/basic", requires(PermPlansWrite)},

		{"GET", "/domains", requires(PermDomainsRead)},
		{"GET", "/domains/resolve/app.acme.test", requires(PermDomainsRead)},
		{"POST", "/domains", requires(PermDomainsWrite)},
		{"DELETE", "/domains/d1", requires(PermDomainsWrite)},
		{"POST", "/domains/d1/verify", requires(PermDomainsVerify)},
		{"GET", "/domains/d1/verify", requires(PermDomainsVerify)},
		{"GET", "/domains/resolve/verify.acme.test", requires(PermDomainsRead)},

		{"GET", "/usage/tenants/t1", requires(PermUsageRead)},
		{"GET", "/admin/dashboard", requires(PermUsageRead)},
		{"POST", "/admin/dashboard", requires(PermUsageRead)},

		{"GET", "/system/info", requires(PermSystemRead)},
		{"POST", "/system/info", requires(PermSystemWrite)},
		{"GET", "/admin/audit", requires(PermSystemRead)},
		{"POST", "/admin/users", requires(PermSystemWrite)},
		{"POST", "/admin/cache/flush", requires(PermSystemWrite)},

		{"GET", "/health", public()},
		{"POST", "/auth/login", public()},
		{"GET", "/", public()},
		{"GET", "/unknown/route", public()},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.method, tc.path))
		})
	}
}

// Recording usage is a write but is deliberately classified as usage:read.
func TestClassify_UsageRecordIsReadPermission(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"POST", "PUT", "PATCH", "DELETE"} {
		got := Classify(method, "/usage/tenants/t1/records")
		assert.Equal(t, requires(PermUsageRead), got, method)
	}
	assert.True(t, DefaultAccessRules().HasPermission(RoleTenantUser, Classify("POST", "/usage/tenants/t1/records").Permission))
}

func TestClassify_DefaultArmIsPublic(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/webhooks", "/v2/tenants", "/reports/monthly"} {
		assert.True(t, Classify("POST", path).Public(), path)
	}
}

func TestTargetTenant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/tenants", ""},
		{"/tenants/", ""},
		{"/tenants/t1", "t1"},
		{"/tenants/t1/", "t1"},
		{"/tenants/t1/members/u1", "t1"},
		{"/usage/tenants/t2", "t2"},
		{"/usage/tenants/t2/records", "t2"},
		{"/partners/p1", ""},
		{"/domains/d1", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TargetTenant(tc.path), tc.path)
	}
}

func TestIsWriteVerb(t *testing.T) {
	t.Parallel()

	for _, m := range []string{"POST", "PUT", "PATCH", "DELETE", "post"} {
		assert.True(t, IsWriteVerb(m), m)
	}
	for _, m := range []string{"GET", "HEAD", "OPTIONS"} {
		assert.False(t, IsWriteVerb(m), m)
	}
}
