package authz

import (
	"context"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Partner p1 owns t1, t2 (active) and t3 (suspended); partner p2 owns t4, t5.
func graph() *memStore {
	return newMemStore().
		addTenant("p1", "t1", true).
		addTenant("p1", "t2", true).
		addTenant("p1", "t3", false).
		addTenant("p2", "t4", true).
		addTenant("p2", "t5", true)
}

func TestCanAccessTenant_PartnerAdminReachesSiblingTenant(t *testing.T) {
	t.Parallel()

	store := newMemStore().
		addTenant("p1", "t1", true).
		addTenant("p1", "t2", true).
		addTenant("p2", "t3", true).
		addMembership("u-pa", "t1", RolePartnerAdmin)
	r := NewTenantAccessResolver(store)
	p := &Principal{ID: "u-pa", Role: RolePartnerAdmin, Memberships: []TenantContext{{TenantID: "t1", Role: RolePartnerAdmin}}}

	ok, err := r.CanAccessTenant(context.Background(), p, "t2")
	require.NoError(t, err)
	assert.True(t, ok, "sibling tenant under the same partner")

	ok, err = r.CanAccessTenant(context.Background(), p, "t3")
	require.NoError(t, err)
	assert.False(t, ok, "tenant of another partner")
}

func TestCanAccessTenant_Roles(t *testing.T) {
	t.Parallel()

	store := graph().
		addMembership("u-pa", "t1", RolePartnerAdmin).
		addMembership("u-ta", "t2", RoleTenantAdmin).
		addMembership("u-tu", "t4", RoleTenantUser).
		addMembership("u-legacy", "t4", RolePlatformAdmin)
	r := NewTenantAccessResolver(store)

	tests := []struct {
		name   string
		p      *Principal
		tenant string
		want   bool
	}{
		{"platform admin any tenant", &Principal{ID: "root", Role: RolePlatformAdmin}, "t5", true},
		{"platform admin unknown tenant", &Principal{ID: "root", Role: RolePlatformAdmin}, "nope", true},
		{"partner admin own tenant", &Principal{ID: "u-pa", Role: RolePartnerAdmin}, "t1", true},
		{"partner admin sibling", &Principal{ID: "u-pa", Role: RolePartnerAdmin}, "t2", true},
		{"partner admin suspended sibling", &Principal{ID: "u-pa", Role: RolePartnerAdmin}, "t3", false},
		{"partner admin other partner", &Principal{ID: "u-pa", Role: RolePartnerAdmin}, "t4", false},
		{"tenant admin own", &Principal{ID: "u-ta", Role: RoleTenantAdmin}, "t2", true},
		{"tenant admin sibling", &Principal{ID: "u-ta", Role: RoleTenantAdmin}, "t1", false},
		{"tenant user own", &Principal{ID: "u-tu", Role: RoleTenantUser}, "t4", true},
		{"tenant user other", &Principal{ID: "u-tu", Role: RoleTenantUser}, "t5", false},
		{"legacy platform membership scoped as partner admin", &Principal{ID: "u-legacy", Role: RolePartnerAdmin}, "t5", true},
		{"legacy platform membership other partner", &Principal{ID: "u-legacy", Role: RolePartnerAdmin}, "t1", false},
		{"no membership", &Principal{ID: "u-none", Role: RoleTenantUser}, "t1", false},
		{"unknown role", &Principal{ID: "u-pa", Role: Role("OWNER")}, "t1", false},
		{"nil principal", nil, "t1", false},
		{"empty tenant", &Principal{ID: "u-pa", Role: RolePartnerAdmin}, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := r.CanAccessTenant(context.Background(), tc.p, tc.tenant)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

// oracle restates the reachability rule independently of the resolver.
func oracle(s *memStore, p *Principal, tenantID string) bool {
	switch p.Role {
	case RolePlatformAdmin:
		return true
	case RolePartnerAdmin, RoleTenantAdmin, RoleTenantUser:
	default:
		return false
	}
	for _, m := range s.memberships {
		if m.PrincipalID != p.ID {
			continue
		}
		switch m.Role {
		case RoleTenantAdmin, RoleTenantUser:
			if m.TenantID == tenantID {
				return true
			}
		case RolePartnerAdmin, RolePlatformAdmin:
			owner, ok := s.tenantOwner[tenantID]
			if ok && owner == s.tenantOwner[m.TenantID] && s.tenantActive[tenantID] {
				return true
			}
		}
	}
	return false
}

func TestCanAccessTenant_Property(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 42))
	tenants := []string{"t1", "t2", "t3", "t4", "t5", "t-missing"}
	roles := []Role{RolePlatformAdmin, RolePartnerAdmin, RoleTenantAdmin, RoleTenantUser, Role("BOGUS")}
	memberRoles := []Role{"", RolePartnerAdmin, RoleTenantAdmin, RoleTenantUser, RolePlatformAdmin}

	for i := 0; i < 400; i++ {
		store := graph()
		for _, tenant := range tenants[:5] {
			if role := memberRoles[rng.IntN(len(memberRoles))]; role != "" {
				store.addMembership("u", tenant, role)
			}
		}
		p := &Principal{ID: "u", Role: roles[rng.IntN(len(roles))]}
		r := NewTenantAccessResolver(store)

		for _, tenant := range tenants {
			want := oracle(store, p, tenant)
			got, err := r.CanAccessTenant(context.Background(), p, tenant)
			require.NoError(t, err)
			require.Equalf(t, want, got, "iteration %d role %s tenant %s memberships %+v", i, p.Role, tenant, store.memberships)
		}
	}
}

func TestCanAccessTenant_StoreFailureIsAnError(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"FindMembership", "FindMemberships", "FindTenantPartner", "FindPartnerTenants"} {
		t.Run(method, func(t *testing.T) {
			store := &failingStore{
				memStore: graph().addMembership("u-pa", "t1", RolePartnerAdmin),
				fail:     method,
			}
			r := NewTenantAccessResolver(store)
			ok, err := r.CanAccessTenant(context.Background(), &Principal{ID: "u-pa", Role: RolePartnerAdmin}, "t2")
			require.ErrorIs(t, err, errStoreDown)
			assert.False(t, ok)
		})
	}
}

func TestCanAccessTenant_Timeout(t *testing.T) {
	t.Parallel()

	r := NewTenantAccessResolver(blockingStore{}, WithLookupTimeout(20*time.Millisecond))

	start := time.Now()
	ok, err := r.CanAccessTenant(context.Background(), &Principal{ID: "u", Role: RoleTenantUser}, "t1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCanAccessTenant_PlatformAdminSkipsStore(t *testing.T) {
	t.Parallel()

	store := graph()
	r := NewTenantAccessResolver(store)
	ok, err := r.CanAccessTenant(context.Background(), &Principal{ID: "root", Role: RolePlatformAdmin}, "t1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, store.calls)
}

type recordingObserver struct {
	results []string
}

func (o *recordingObserver) ObserveTenantLookup(result string, _ time.Duration) {
	o.results = append(o.results, result)
}

func TestCanAccessTenant_Observer(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	store := &failingStore{memStore: graph().addMembership("u", "t1", RoleTenantUser)}
	r := NewTenantAccessResolver(store, WithLookupObserver(obs))

	_, _ = r.CanAccessTenant(context.Background(), &Principal{ID: "u", Role: RoleTenantUser}, "t1")
	_, _ = r.CanAccessTenant(context.Background(), &Principal{ID: "u", Role: RoleTenantUser}, "t2")
	store.fail = "FindMembership"
	_, _ = r.CanAccessTenant(context.Background(), &Principal{ID: "u", Role: RoleTenantUser}, "t1")

	assert.Equal(t, []string{"allow", "deny", "error"}, obs.results)
}

func TestCanAccessPartner(t *testing.T) {
	t.Parallel()

	store := graph().
		addMembership("u-pa", "t1", RolePartnerAdmin).
		addMembership("u-ta", "t4", RoleTenantAdmin)
	r := NewTenantAccessResolver(store)
	ctx := context.Background()

	ok, err := r.CanAccessPartner(ctx, &Principal{ID: "u-pa", Role: RolePartnerAdmin}, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CanAccessPartner(ctx, &Principal{ID: "u-pa", Role: RolePartnerAdmin}, "p2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.CanAccessPartner(ctx, &Principal{ID: "u-ta", Role: RoleTenantAdmin}, "p2")
	require.NoError(t, err)
	assert.False(t, ok, "tenant admin does not administer the partner")

	ok, err = r.CanAccessPartner(ctx, &Principal{ID: "root", Role: RolePlatformAdmin}, "p2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccessibleTenants(t *testing.T) {
	t.Parallel()

	store := graph().
		addMembership("u", "t2", RolePartnerAdmin).
		addMembership("u", "t4", RoleTenantUser)
	r := NewTenantAccessResolver(store)

	ids, all, err := r.AccessibleTenants(context.Background(), &Principal{ID: "u", Role: RolePartnerAdmin})
	require.NoError(t, err)
	assert.False(t, all)
	sort.Strings(ids)
	assert.Equal(t, []string{"t1", "t2", "t4"}, ids)

	ids, all, err = r.AccessibleTenants(context.Background(), &Principal{ID: "root", Role: RolePlatformAdmin})
	require.NoError(t, err)
	assert.True(t, all)
	assert.Nil(t, ids)
}
