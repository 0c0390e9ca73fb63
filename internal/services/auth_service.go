package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
	"github.com/rs/zerolog/log"
)

// AuthService issues tokens for users and API clients
type AuthService struct {
	users       *repository.UserRepository
	clients     *repository.APIClientRepository
	memberships *repository.MembershipRepository
	tenants     *repository.TenantRepository
	issuer      *authz.TokenIssuer
	audit       *AuditService
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *repository.UserRepository,
	clients *repository.APIClientRepository,
	memberships *repository.MembershipRepository,
	tenants *repository.TenantRepository,
	issuer *authz.TokenIssuer,
	audit *AuditService,
) *AuthService {
	return &AuthService{
		users:       users,
		clients:     clients,
		memberships: memberships,
		tenants:     tenants,
		issuer:      issuer,
		audit:       audit,
	}
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*authz.Token, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		// Burn comparable time so unknown emails are not distinguishable.
		CheckSecret(dummyHash, req.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !CheckSecret(user.PasswordHash, req.Password) {
		s.audit.Record(ctx, AuditEntry{
			Actor:        &authz.Principal{ID: user.ID, Email: user.Email},
			Action:       "auth.login",
			ResourceType: "user",
			ResourceID:   user.ID,
			Err:          ErrInvalidCredentials,
		})
		return nil, ErrInvalidCredentials
	}
	return s.issueForUser(ctx, user)
}

// ClientCredentials authenticates an API client
func (s *AuthService) ClientCredentials(ctx context.Context, req models.ClientCredentialsRequest) (*authz.Token, error) {
	client, err := s.clients.GetByID(ctx, req.ClientID)
	if errors.Is(err, repository.ErrNotFound) {
		CheckSecret(dummyHash, req.ClientSecret)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !client.IsActive || !CheckSecret(client.SecretHash, req.ClientSecret) {
		return nil, ErrInvalidCredentials
	}

	tok, err := s.issueForClient(ctx, client)
	if err != nil {
		return nil, err
	}
	if err := s.clients.TouchLastUsed(ctx, client.ClientID, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Str("client_id", client.ClientID).Msg("Failed to stamp api client use")
	}
	return tok, nil
}

// Refresh re-issues a token for p from a fresh read of its memberships
func (s *AuthService) Refresh(ctx context.Context, p *authz.Principal) (*authz.Token, error) {
	if p == nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByID(ctx, p.ID)
	if err == nil {
		if !user.IsActive {
			return nil, ErrInvalidCredentials
		}
		return s.issueForUser(ctx, user)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	client, err := s.clients.GetByID(ctx, p.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !client.IsActive {
		return nil, ErrInvalidCredentials
	}
	return s.issueForClient(ctx, client)
}

func (s *AuthService) issueForUser(ctx context.Context, user *models.User) (*authz.Token, error) {
	memberships, err := s.memberships.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	contexts := make([]authz.TenantContext, 0, len(memberships))
	for _, m := range memberships {
		tc := authz.TenantContext{TenantID: m.TenantID, Role: m.Role}
		if m.Tenant != nil {
			tc.TenantName = m.Tenant.Name
			tc.TenantType = string(m.Tenant.TenantType)
		}
		contexts = append(contexts, tc)
	}

	tok, err := s.issuer.Issue(authz.Identity{ID: user.ID, Email: user.Email}, contexts)
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", user.ID).Str("role", string(tok.Role)).Msg("Issued user token")
	return tok, nil
}

func (s *AuthService) issueForClient(ctx context.Context, client *models.APIClient) (*authz.Token, error) {
	tc := authz.TenantContext{TenantID: client.TenantID, Role: client.Role}
	if tenant, err := s.tenants.GetByID(ctx, client.TenantID); err == nil {
		tc.TenantName = tenant.Name
		tc.TenantType = string(tenant.TenantType)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	tok, err := s.issuer.Issue(authz.Identity{ID: client.ClientID}, []authz.TenantContext{tc})
	if err != nil {
		return nil, err
	}
	log.Info().Str("client_id", client.ClientID).Str("tenant_id", client.TenantID).Msg("Issued client token")
	return tok, nil
}

// dummyHash is a bcrypt hash of a random string, compared against when the
// principal does not exist.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z1eEl4ZfL1Wq7lG7zv3sF2xK"
