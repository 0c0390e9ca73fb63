package authz

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestIssuer(t *testing.T, clock *testClock, mutate ...func(*TokenConfig)) *TokenIssuer {
	t.Helper()
	cfg := TokenConfig{
		Secret:             []byte(testSecret),
		Issuer:             "control-plane",
		Audience:           "control-plane-api",
		TTL:                time.Hour,
		PlatformAdminEmail: "root@platform.test",
		Now:                clock.Now,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	issuer, err := NewTokenIssuer(cfg)
	require.NoError(t, err)
	return issuer
}

func sampleMemberships() []TenantContext {
	return []TenantContext{
		{TenantID: "t1", TenantName: "Acme UI", TenantType: "UI", Role: RolePartnerAdmin},
		{TenantID: "t9", TenantName: "Other", TenantType: "API", Role: RoleTenantUser},
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(t, clock)

	memberships := sampleMemberships()
	tok, err := issuer.Issue(Identity{ID: "u-1", Email: "pa@acme.test"}, memberships)
	require.NoError(t, err)
	assert.Equal(t, RolePartnerAdmin, tok.Role)
	assert.Equal(t, clock.now.Add(time.Hour), tok.ExpiresAt)

	p, err := issuer.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, "pa@acme.test", p.Email)
	assert.Equal(t, RolePartnerAdmin, p.Role)
	assert.Equal(t, memberships, p.Memberships)
}

func TestTokenIssuer_PrimaryRole(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, &testClock{now: time.Now()})

	tests := []struct {
		name        string
		email       string
		memberships []TenantContext
		want        Role
	}{
		{"bootstrap admin", "root@platform.test", sampleMemberships(), RolePlatformAdmin},
		{"bootstrap admin any case", "Root@Platform.TEST", nil, RolePlatformAdmin},
		{"first membership wins", "pa@acme.test", sampleMemberships(), RolePartnerAdmin},
		{"first membership tenant user", "tu@acme.test", []TenantContext{
			{TenantID: "t1", Role: RoleTenantUser},
			{TenantID: "t2", Role: RoleTenantAdmin},
		}, RoleTenantUser},
		{"no memberships", "nobody@acme.test", nil, RoleTenantUser},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, issuer.PrimaryRole(tc.email, tc.memberships))
		})
	}
}

func TestTokenIssuer_NoBootstrapEmailConfigured(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, &testClock{now: time.Now()}, func(c *TokenConfig) { c.PlatformAdminEmail = "" })
	assert.Equal(t, RoleTenantUser, issuer.PrimaryRole("", nil))
}

func TestTokenIssuer_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(t, clock)

	tok, err := issuer.Issue(Identity{ID: "u-1", Email: "u@acme.test"}, sampleMemberships())
	require.NoError(t, err)

	clock.now = tok.ExpiresAt.Add(-time.Second)
	_, err = issuer.Verify(tok.Value)
	require.NoError(t, err, "one second before expiry is still valid")

	clock.now = tok.ExpiresAt
	_, err = issuer.Verify(tok.Value)
	require.ErrorIs(t, err, ErrTokenExpired, "a token is expired at its exp instant")
	assert.Equal(t, CodeTokenExpired, ErrorCode(err))

	clock.now = tok.ExpiresAt.Add(time.Minute)
	_, err = issuer.Verify(tok.Value)
	assert.Equal(t, CodeTokenExpired, ErrorCode(err))
}

func TestTokenIssuer_Invalid(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(t, clock)

	valid, err := issuer.Issue(Identity{ID: "u-1", Email: "u@acme.test"}, sampleMemberships())
	require.NoError(t, err)
	other, err := issuer.Issue(Identity{ID: "u-2", Email: "root@platform.test"}, nil)
	require.NoError(t, err)

	// Payload of u-2 (a platform admin) spliced onto u-1's signature.
	vp := strings.Split(valid.Value, ".")
	op := strings.Split(other.Value, ".")
	spliced := vp[0] + "." + op[1] + "." + vp[2]

	foreign := newTestIssuer(t, clock, func(c *TokenConfig) { c.Secret = []byte("ffffffffffffffffffffffffffffffff") })
	foreignTok, err := foreign.Issue(Identity{ID: "u-1"}, sampleMemberships())
	require.NoError(t, err)

	wrongIssuer := newTestIssuer(t, clock, func(c *TokenConfig) { c.Issuer = "someone-else" })
	wrongIssuerTok, err := wrongIssuer.Issue(Identity{ID: "u-1"}, sampleMemberships())
	require.NoError(t, err)

	wrongAudience := newTestIssuer(t, clock, func(c *TokenConfig) { c.Audience = "other-api" })
	wrongAudienceTok, err := wrongAudience.Issue(Identity{ID: "u-1"}, sampleMemberships())
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: RolePlatformAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			Issuer:    "control-plane",
			Audience:  jwt.ClaimStrings{"control-plane-api"},
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"spliced payload", spliced},
		{"foreign secret", foreignTok.Value},
		{"wrong issuer", wrongIssuerTok.Value},
		{"wrong audience", wrongAudienceTok.Value},
		{"alg none", unsigned},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := issuer.Verify(tc.token)
			assert.Nil(t, p)
			require.ErrorIs(t, err, ErrTokenInvalid)
			assert.Equal(t, CodeTokenInvalid, ErrorCode(err))
		})
	}
}

func TestTokenIssuer_ExpiredAndTamperedIsInvalid(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(t, clock)
	foreign := newTestIssuer(t, clock, func(c *TokenConfig) { c.Secret = []byte("ffffffffffffffffffffffffffffffff") })

	tok, err := foreign.Issue(Identity{ID: "u-1"}, sampleMemberships())
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Hour)
	_, err = issuer.Verify(tok.Value)
	assert.Equal(t, CodeTokenInvalid, ErrorCode(err))
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer(TokenConfig{Secret: []byte("short"), Issuer: "i", Audience: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")

	_, err = NewTokenIssuer(TokenConfig{Secret: []byte(testSecret), Audience: "a"})
	require.Error(t, err)

	_, err = NewTokenIssuer(TokenConfig{Secret: []byte(testSecret), Issuer: "i"})
	require.Error(t, err)

	issuer, err := NewTokenIssuer(TokenConfig{Secret: []byte(testSecret), Issuer: "i", Audience: "a"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())
}

func TestTokenIssuer_IssueRequiresSubject(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, &testClock{now: time.Now()})
	_, err := issuer.Issue(Identity{Email: "x@acme.test"}, nil)
	require.Error(t, err)
}
