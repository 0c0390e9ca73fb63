package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/config"
	"github.com/avantlehq/core-avantle-ai/internal/database"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func run(t *testing.T, opts *options, args ...string) (string, error) {
	t.Helper()
	if opts == nil {
		opts = &options{openDB: func(*config.Config) (*gorm.DB, error) {
			t.Fatal("unexpected database access")
			return nil, nil
		}}
	}
	root := newRootCmd(opts)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestClassify(t *testing.T) {
	c := classify("post", "/usage/tenants/acme/records")
	assert.Equal(t, "POST", c.Method)
	assert.Equal(t, "usage:read", c.Access)
	assert.Equal(t, "acme", c.TargetTenant)
	assert.Equal(t, authz.Roles(), c.Roles)

	c = classify("DELETE", "/tenants/acme")
	assert.Equal(t, "tenants:delete", c.Access)
	assert.Equal(t, []authz.Role{authz.RolePlatformAdmin}, c.Roles)

	assert.Equal(t, "authenticated", classify("GET", "/auth/me").Access)
	assert.Equal(t, "public", classify("POST", "/auth/login").Access)
	assert.Equal(t, "unclassified", classify("GET", "/webhooks").Access)
}

func TestClassifyCmd(t *testing.T) {
	out, err := run(t, nil, "classify", "PATCH", "/tenants/acme/status")
	require.NoError(t, err)
	assert.Contains(t, out, "Access: tenants:write")
	assert.Contains(t, out, "Tenant: acme")
	assert.Contains(t, out, "PARTNER_ADMIN")

	out, err = run(t, nil, "classify", "GET", "/plans", "-o", "json")
	require.NoError(t, err)
	var c classification
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, "plans:read", c.Access)

	_, err = run(t, nil, "classify", "GET")
	assert.Error(t, err)
}

func TestRulesCmd(t *testing.T) {
	out, err := run(t, nil, "rules", "-o", "json")
	require.NoError(t, err)
	var rules []authz.AccessRule
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 4)
	assert.Equal(t, authz.RolePlatformAdmin, rules[0].Role)

	out, err = run(t, nil, "rules", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "role: TENANT_USER")

	out, err = run(t, nil, "rules")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ROLE"))

	_, err = run(t, nil, "rules", "-o", "xml")
	assert.Error(t, err)
}

func TestTokenIssueAndInspect(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PLATFORM_ADMIN_EMAIL", "ops@example.com")

	out, err := run(t, nil, "token", "issue", "--subject", "u-1", "--membership", "acme=tenant_admin", "--membership", "beta=TENANT_USER")
	require.NoError(t, err)
	tok := strings.TrimSpace(out)
	require.NotEmpty(t, tok)

	out, err = run(t, nil, "token", "inspect", "Bearer "+tok, "-o", "json")
	require.NoError(t, err)
	var got inspected
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "u-1", got.Subject)
	assert.Equal(t, authz.RoleTenantAdmin, got.Role)
	require.Len(t, got.Memberships, 2)
	assert.Equal(t, "beta", got.Memberships[1].TenantID)

	out, err = run(t, nil, "token", "issue", "--subject", "ops", "--email", "OPS@example.com", "-o", "json")
	require.NoError(t, err)
	var issued authz.Token
	require.NoError(t, json.Unmarshal([]byte(out), &issued))
	assert.Equal(t, authz.RolePlatformAdmin, issued.Role)

	out, err = run(t, nil, "token", "inspect", issued.Value)
	require.NoError(t, err)
	assert.Contains(t, out, "Role:    PLATFORM_ADMIN")

	_, err = run(t, nil, "token", "inspect", "not-a-token")
	assert.ErrorIs(t, err, authz.ErrTokenInvalid)
}

func TestTokenIssue_Rejects(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	_, err := run(t, nil, "token", "issue", "--subject", "u-1", "--membership", "acme=PLATFORM_ADMIN")
	assert.ErrorContains(t, err, "cannot be granted")

	_, err = run(t, nil, "token", "issue", "--subject", "u-1", "--membership", "acme")
	assert.ErrorContains(t, err, "tenant=ROLE")

	_, err = run(t, nil, "token", "issue")
	assert.Error(t, err, "subject is required")

	t.Setenv("JWT_SECRET", "short")
	_, err = run(t, nil, "token", "issue", "--subject", "u-1")
	assert.ErrorContains(t, err, "at least 32 bytes")
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, nil, "hash-password", "correct horse")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.True(t, services.CheckSecret(hash, "correct horse"))

	_, err = run(t, nil, "hash-password", "short")
	assert.Error(t, err)
}

func TestUserCreate(t *testing.T) {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	// Holds the shared in-memory database open across command runs.
	keep, err := database.Open(sqlite.Open(dsn), "silent")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(keep) })

	ctx := context.Background()
	require.NoError(t, repository.NewPartnerRepository(keep).Create(ctx, &models.Partner{ID: "p1", Name: "Acme", BillingEmail: "billing@acme.test", Status: models.PartnerStatusActive}))
	require.NoError(t, repository.NewTenantRepository(keep).Create(ctx, &models.Tenant{ID: "t1", PartnerID: "p1", Name: "T1", TenantType: models.TenantTypeUI, Status: models.TenantStatusActive}))

	opts := &options{openDB: func(*config.Config) (*gorm.DB, error) {
		return database.Open(sqlite.Open(dsn), "silent")
	}}

	_, err = run(t, opts, "user", "create", "--email", "ops@acme.test", "--name", "Ops", "--password", "correct horse", "--tenant", "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = run(t, opts, "user", "create", "--email", "ops@acme.test", "--name", "Ops", "--password", "correct horse", "--tenant", "t1", "--role", "platform_admin")
	assert.ErrorContains(t, err, "cannot be granted")

	out, err := run(t, opts, "user", "create", "--email", "Ops@Acme.test", "--name", "Ops", "--password", "correct horse", "--tenant", "t1", "--role", "tenant_admin", "-o", "json")
	require.NoError(t, err)
	var user models.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "ops@acme.test", user.Email)

	memberships, err := repository.NewMembershipRepository(keep).ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, authz.RoleTenantAdmin, memberships[0].Role)

	_, err = run(t, opts, "user", "create", "--email", "ops@acme.test", "--name", "Ops", "--password", "correct horse")
	assert.ErrorIs(t, err, services.ErrConflict)

	out, err = run(t, opts, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}
