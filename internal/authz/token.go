package authz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// MinSecretLength is the minimum HMAC secret size in bytes.
	MinSecretLength = 32
	// DefaultTokenTTL is used when TokenConfig.TTL is zero.
	DefaultTokenTTL = 24 * time.Hour
)

var signingMethod = jwt.SigningMethodHS256

// TokenConfig configures token issuance and verification.
type TokenConfig struct {
	Secret             []byte
	Issuer             string
	Audience           string
	TTL                time.Duration
	PlatformAdminEmail string
	Now                func() time.Time
}

// Claims is the signed token payload.
type Claims struct {
	Email         string          `json:"email"`
	Role          Role            `json:"role"`
	TenantContext []TenantContext `json:"tenant_context"`
	jwt.RegisteredClaims
}

// Identity is the persisted user or API client a token is issued for.
type Identity struct {
	ID    string
	Email string
}

// Token is an issued bearer token.
type Token struct {
	Value     string    `json:"access_token"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenIssuer signs and verifies bearer tokens. It is stateless.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	audience   string
	ttl        time.Duration
	adminEmail string
	now        func() time.Time
}

// NewTokenIssuer validates cfg and returns an issuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretLength, len(cfg.Secret))
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("token audience is required")
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token ttl must not be negative, got %s", cfg.TTL)
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenIssuer{
		secret:     append([]byte(nil), cfg.Secret...),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		ttl:        cfg.TTL,
		adminEmail: strings.TrimSpace(cfg.PlatformAdminEmail),
		now:        cfg.Now,
	}, nil
}

// TTL returns the configured token lifetime. Membership changes are not
// visible to a principal until its token is re-issued, so this is also the
// upper bound on revocation latency.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// PrimaryRole picks the single role asserted in a token: the bootstrap admin
// email gets PLATFORM_ADMIN, otherwise the first membership's role, otherwise
// TENANT_USER.
func (t *TokenIssuer) PrimaryRole(email string, memberships []TenantContext) Role {
	if t.adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), t.adminEmail) {
		return RolePlatformAdmin
	}
	if len(memberships) > 0 {
		return memberships[0].Role
	}
	return RoleTenantUser
}

// Issue signs a token for id carrying the full membership list.
func (t *TokenIssuer) Issue(id Identity, memberships []TenantContext) (*Token, error) {
	if id.ID == "" {
		return nil, errors.New("token subject is required")
	}
	role := t.PrimaryRole(id.Email, memberships)
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q for subject %s", role, id.ID)
	}

	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Email:         id.Email,
		Role:          role,
		TenantContext: append([]TenantContext{}, memberships...),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Token{Value: signed, Role: role, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks signature, issuer, audience and expiry and rebuilds the
// embedded principal. A token is expired at its exp instant. Failures are
// ErrTokenExpired or ErrTokenInvalid.
func (t *TokenIssuer) Verify(tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &Error{Code: CodeTokenExpired, Message: ErrTokenExpired.Message, Err: err}
		}
		return nil, &Error{Code: CodeTokenInvalid, Message: ErrTokenInvalid.Message, Err: err}
	}

	if !t.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}
	for _, m := range claims.TenantContext {
		if m.TenantID == "" || !m.Role.Valid() {
			return nil, ErrTokenInvalid
		}
	}

	return &Principal{
		ID:          claims.Subject,
		Email:       claims.Email,
		Role:        claims.Role,
		Memberships: claims.TenantContext,
	}, nil
}
