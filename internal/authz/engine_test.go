package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	clock   *testClock
	issuer  *TokenIssuer
	store   *memStore
	checker *spyChecker
	engine  *Engine
}

// spyChecker counts calls before delegating to a resolver.
type spyChecker struct {
	next  TenantChecker
	calls int
	err   error
}

func (s *spyChecker) CanAccessTenant(ctx context.Context, p *Principal, tenantID string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.next.CanAccessTenant(ctx, p, tenantID)
}

type decisionCounter struct {
	allowed int
	denied  map[Code]int
}

func (d *decisionCounter) ObserveDecision(allowed bool, code Code) {
	if allowed {
		d.allowed++
		return
	}
	if d.denied == nil {
		d.denied = make(map[Code]int)
	}
	d.denied[code]++
}

func newEngineFixture(t *testing.T, opts ...EngineOption) *engineFixture {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := graph().
		addMembership("u-pa", "t1", RolePartnerAdmin).
		addMembership("u-ta", "t2", RoleTenantAdmin).
		addMembership("u-tu", "t1", RoleTenantUser)
	checker := &spyChecker{next: NewTenantAccessResolver(store)}
	issuer := newTestIssuer(t, clock)
	opts = append([]EngineOption{WithLogger(zerolog.Nop())}, opts...)
	return &engineFixture{
		clock:   clock,
		issuer:  issuer,
		store:   store,
		checker: checker,
		engine:  NewEngine(DefaultAccessRules(), issuer, checker, opts...),
	}
}

func (f *engineFixture) bearer(t *testing.T, id, email string, memberships ...TenantContext) string {
	t.Helper()
	tok, err := f.issuer.Issue(Identity{ID: id, Email: email}, memberships)
	require.NoError(t, err)
	return "Bearer " + tok.Value
}

func (f *engineFixture) authorize(method, path, authorization string) Result {
	return f.engine.Authorize(context.Background(), Request{Method: method, Path: path, Authorization: authorization})
}

func TestEngine_PublicWithoutToken(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	for _, path := range []string{"/health", "/ready", "/metrics", "/docs", "/auth/login", "/auth/token"} {
		res := f.authorize(http.MethodGet, path, "")
		assert.True(t, res.Allowed, path)
		assert.Nil(t, res.Principal, path)
		assert.Empty(t, res.Code, path)
	}
}

func TestEngine_PublicIgnoresBadToken(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	res := f.authorize(http.MethodGet, "/health", "Bearer garbage")
	assert.True(t, res.Allowed)
}

func TestEngine_TenantUserWriteIsForbiddenBeforeScoping(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	auth := f.bearer(t, "u-tu", "tu@acme.test", TenantContext{TenantID: "t1", Role: RoleTenantUser})
	res := f.authorize(http.MethodPut, "/tenants/t1", auth)

	assert.False(t, res.Allowed)
	assert.Equal(t, CodeForbidden, res.Code)
	assert.Equal(t, "insufficient permission: tenants:write required", res.Message)
	assert.Zero(t, f.checker.calls, "tenant scoping must not run")
}

func TestEngine_TokenFailures(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	auth := f.bearer(t, "u-tu", "tu@acme.test", TenantContext{TenantID: "t1", Role: RoleTenantUser})
	tampered := tamperSignature(auth)
	f.clock.now = f.clock.now.Add(48 * time.Hour)

	res := f.authorize(http.MethodGet, "/tenants/t1", auth)
	assert.Equal(t, CodeTokenExpired, res.Code)
	assert.Equal(t, http.StatusUnauthorized, res.Denial().HTTPStatus())

	res = f.authorize(http.MethodGet, "/tenants/t1", tampered)
	assert.Equal(t, CodeTokenInvalid, res.Code)

	res = f.authorize(http.MethodGet, "/tenants/t1", "")
	assert.Equal(t, CodeUnauthorized, res.Code)

	res = f.authorize(http.MethodGet, "/tenants/t1", "Basic dXNlcjpwYXNz")
	assert.Equal(t, CodeUnauthorized, res.Code)
}

func TestEngine_TenantScoping(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	pa := f.bearer(t, "u-pa", "pa@acme.test", TenantContext{TenantID: "t1", Role: RolePartnerAdmin})
	ta := f.bearer(t, "u-ta", "ta@acme.test", TenantContext{TenantID: "t2", Role: RoleTenantAdmin})
	root := f.bearer(t, "root", "root@platform.test")

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		code   Code
	}{
		{"partner admin sibling tenant", http.MethodGet, "/tenants/t2", pa, ""},
		{"partner admin updates sibling", http.MethodPut, "/tenants/t2", pa, ""},
		{"partner admin other partner", http.MethodGet, "/tenants/t4", pa, CodeForbidden},
		{"partner admin usage of sibling", http.MethodGet, "/usage/tenants/t2", pa, ""},
		{"tenant admin own tenant", http.MethodGet, "/tenants/t2", ta, ""},
		{"tenant admin sibling", http.MethodGet, "/tenants/t1", ta, CodeForbidden},
		{"tenant admin cannot delete", http.MethodDelete, "/tenants/t2", ta, CodeForbidden},
		{"tenant admin list is not scoped", http.MethodGet, "/tenants", ta, ""},
		{"platform admin anywhere", http.MethodDelete, "/tenants/t5", root, ""},
		{"platform admin system", http.MethodPost, "/system/info", root, ""},
		{"partner admin no system", http.MethodGet, "/system/info", pa, CodeForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := f.authorize(tc.method, tc.path, tc.auth)
			assert.Equal(t, tc.code == "", res.Allowed)
			assert.Equal(t, tc.code, res.Code)
			if tc.code == CodeForbidden && res.TenantID != "" {
				assert.Equal(t, "access denied to this tenant", res.Message)
			}
		})
	}
}

func TestEngine_PlatformAdminSkipsScoping(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	res := f.authorize(http.MethodGet, "/tenants/t4", f.bearer(t, "root", "root@platform.test"))
	require.True(t, res.Allowed)
	assert.Equal(t, "t4", res.TenantID)
	assert.Zero(t, f.checker.calls)
}

func TestEngine_LookupFailureIsInternalError(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)
	f.checker.err = errStoreDown

	res := f.authorize(http.MethodGet, "/tenants/t1", f.bearer(t, "u-tu", "tu@acme.test", TenantContext{TenantID: "t1", Role: RoleTenantUser}))
	assert.False(t, res.Allowed)
	assert.Equal(t, CodeInternalError, res.Code)
	assert.NotEqual(t, CodeForbidden, res.Code)
	assert.ErrorIs(t, res.Err, errStoreDown)
	assert.Equal(t, http.StatusInternalServerError, res.Denial().HTTPStatus())
	assert.NotContains(t, res.Message, "connection refused")
}

func TestEngine_CanceledContext(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.engine.Authorize(ctx, Request{Method: http.MethodGet, Path: "/tenants/t1"})
	assert.Equal(t, CodeInternalError, res.Code)
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.Zero(t, f.checker.calls)
}

func TestEngine_Idempotent(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	auth := f.bearer(t, "u-pa", "pa@acme.test", TenantContext{TenantID: "t1", Role: RolePartnerAdmin})
	first := f.authorize(http.MethodGet, "/tenants/t4", auth)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, f.authorize(http.MethodGet, "/tenants/t4", auth))
	}
}

func TestEngine_UsageRecordByTenantUser(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	res := f.authorize(http.MethodPost, "/usage/tenants/t1/records", f.bearer(t, "u-tu", "tu@acme.test", TenantContext{TenantID: "t1", Role: RoleTenantUser}))
	assert.True(t, res.Allowed)
	assert.Equal(t, PermUsageRead, res.Requirement.Permission)
}

func TestEngine_AuthenticatedPrefixes(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	res := f.authorize(http.MethodGet, "/auth/me", "")
	assert.Equal(t, CodeUnauthorized, res.Code)

	res = f.authorize(http.MethodGet, "/auth/me", f.bearer(t, "u-tu", "tu@acme.test"))
	require.True(t, res.Allowed)
	require.NotNil(t, res.Principal)
	assert.Equal(t, "u-tu", res.Principal.ID)
}

func TestEngine_UnknownRoleIsForbidden(t *testing.T) {
	t.Parallel()

	verifier := verifierFunc(func(string) (*Principal, error) {
		return &Principal{ID: "x", Role: Role("OWNER")}, nil
	})
	e := NewEngine(DefaultAccessRules(), verifier, NewTenantAccessResolver(graph()), WithLogger(zerolog.Nop()))

	res := e.Authorize(context.Background(), Request{Method: http.MethodGet, Path: "/tenants", Authorization: "Bearer x"})
	assert.Equal(t, CodeForbidden, res.Code)
}

func TestEngine_Observer(t *testing.T) {
	t.Parallel()
	obs := &decisionCounter{}
	f := newEngineFixture(t, WithDecisionObserver(obs))

	f.authorize(http.MethodGet, "/health", "")
	f.authorize(http.MethodGet, "/tenants", "")
	f.authorize(http.MethodGet, "/tenants", "Bearer nope")

	assert.Equal(t, 1, obs.allowed)
	assert.Equal(t, map[Code]int{CodeUnauthorized: 1, CodeTokenInvalid: 1}, obs.denied)
}

func TestEngine_Unclassified(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	assert.True(t, f.engine.Unclassified(http.MethodPost, "/webhooks"))
	assert.False(t, f.engine.Unclassified(http.MethodGet, "/health"))
	assert.False(t, f.engine.Unclassified(http.MethodGet, "/auth/me"))
	assert.False(t, f.engine.Unclassified(http.MethodGet, "/tenants"))

	assert.True(t, f.engine.RequiresAuthentication("/auth/refresh"))
	assert.False(t, f.engine.RequiresAuthentication("/auth/login"))
	assert.False(t, f.engine.RequiresAuthentication("/tenants"))
}

func TestEngine_CustomPublicPrefixes(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, WithPublicPrefixes("/status"))

	assert.True(t, f.authorize(http.MethodGet, "/status", "").Allowed)
	assert.Equal(t, CodeUnauthorized, f.authorize(http.MethodGet, "/auth/me", "").Code)
}

func TestRequestFromHTTP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPatch, "/tenants/t1/status?x=1", nil)
	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, Request{Method: http.MethodPatch, Path: "/tenants/t1/status", Authorization: "Bearer abc"}, RequestFromHTTP(r))
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Bearer"))
	assert.Empty(t, BearerToken("Token abc"))
	assert.Empty(t, BearerToken(""))
}

// tamperSignature changes the first character of the signature segment.
func tamperSignature(auth string) string {
	i := strings.LastIndex(auth, ".") + 1
	c := byte('A')
	if auth[i] == 'A' {
		c = 'B'
	}
	return auth[:i] + string(c) + auth[i+1:]
}

type verifierFunc func(string) (*Principal, error)

func (f verifierFunc) Verify(token string) (*Principal, error) { return f(token) }
