package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
)

// TenantService handles business logic for tenants, their members and API clients
type TenantService struct {
	tenants     *repository.TenantRepository
	partners    *repository.PartnerRepository
	plans       *repository.PlanRepository
	users       *repository.UserRepository
	memberships *repository.MembershipRepository
	clients     *repository.APIClientRepository
	access      *authz.TenantAccessResolver
	audit       *AuditService
}

// TenantRepositories groups the repositories TenantService reads and writes
type TenantRepositories struct {
	Tenants     *repository.TenantRepository
	Partners    *repository.PartnerRepository
	Plans       *repository.PlanRepository
	Users       *repository.UserRepository
	Memberships *repository.MembershipRepository
	Clients     *repository.APIClientRepository
}

// NewTenantService creates a new tenant service
func NewTenantService(repos TenantRepositories, access *authz.TenantAccessResolver, audit *AuditService) *TenantService {
	return &TenantService{
		tenants:     repos.Tenants,
		partners:    repos.Partners,
		plans:       repos.Plans,
		users:       repos.Users,
		memberships: repos.Memberships,
		clients:     repos.Clients,
		access:      access,
		audit:       audit,
	}
}

// Create creates an ACTIVE tenant under a partner the actor administers
func (s *TenantService) Create(ctx context.Context, actor *authz.Principal, req models.TenantRequest) (*models.Tenant, error) {
	if !models.ValidTenantID(req.ID) {
		return nil, invalid("tenant id %q must match [a-z0-9][a-z0-9-]{1,62}", req.ID)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if !req.TenantType.Valid() {
		return nil, invalid("unknown tenant type %q", req.TenantType)
	}

	ok, err := s.access.CanAccessPartner(ctx, actor, req.PartnerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	partner, err := s.partners.GetByID(ctx, req.PartnerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid("unknown partner %q", req.PartnerID)
	}
	if err != nil {
		return nil, err
	}
	if partner.Status != models.PartnerStatusActive {
		return nil, fmt.Errorf("%w: partner is %s", ErrConflict, partner.Status)
	}

	tenant := &models.Tenant{
		ID:         req.ID,
		PartnerID:  req.PartnerID,
		Name:       name,
		TenantType: req.TenantType,
		Status:     models.TenantStatusActive,
	}
	if req.PlanID != "" {
		if err := s.checkPlan(ctx, req.PlanID); err != nil {
			return nil, err
		}
		tenant.PlanID = &req.PlanID
	}

	err = s.tenants.Create(ctx, tenant)
	s.audit.Record(ctx, AuditEntry{Actor: actor, TenantID: tenant.ID, Action: "tenant.create", ResourceType: "tenant", ResourceID: tenant.ID, Err: err})
	if err != nil {
		return nil, conflictOr(err, "tenant "+req.ID)
	}
	return tenant, nil
}

// Get retrieves a tenant. Reachability is enforced by the decision engine.
func (s *TenantService) Get(ctx context.Context, id string) (*models.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

// List retrieves the tenants the actor can reach, optionally of one partner
func (s *TenantService) List(ctx context.Context, actor *authz.Principal, partnerID string) ([]models.Tenant, error) {
	filter := repository.TenantFilter{PartnerID: partnerID}
	ids, all, err := s.access.AccessibleTenants(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !all {
		filter.IDs = ids
		if filter.IDs == nil {
			filter.IDs = []string{}
		}
	}
	return s.tenants.List(ctx, filter)
}

// Update changes a tenant's name or type
func (s *TenantService) Update(ctx context.Context, actor *authz.Principal, id string, req models.TenantUpdateRequest) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.Status == models.TenantStatusArchived {
		return nil, fmt.Errorf("%w: tenant is archived", ErrConflict)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		tenant.Name = name
	}
	if req.TenantType != "" {
		if !req.TenantType.Valid() {
			return nil, invalid("unknown tenant type %q", req.TenantType)
		}
		tenant.TenantType = req.TenantType
	}

	err = s.tenants.Update(ctx, tenant)
	s.audit.Record(ctx, AuditEntry{Actor: actor, TenantID: id, Action: "tenant.update", ResourceType: "tenant", ResourceID: id, Err: err})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// UpdateStatus changes a tenant's status. ARCHIVED is terminal.
func (s *TenantService) UpdateStatus(ctx context.Context, actor *authz.Principal, id string, status models.TenantStatus) (*models.Tenant, error) {
	if !status.Valid() {
		return nil, invalid("unknown tenant status %q", status)
	}
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tenant.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: tenant cannot move from %s to %s", ErrConflict, tenant.Status, status)
	}

	from := tenant.Status
	tenant.Status = status
	err = s.tenants.Update(ctx, tenant)
	s.audit.Record(ctx, AuditEntry{
		Actor:        actor,
		TenantID:     id,
		Action:       "tenant.status",
		ResourceType: "tenant",
		ResourceID:   id,
		Err:          err,
		Metadata:     map[string]any{"from": string(from), "to": string(status)},
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// AssignPlan sets or clears a tenant's plan
func (s *TenantService) AssignPlan(ctx context.Context, actor *authz.Principal, id, planID string) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if planID == "" {
		tenant.PlanID = nil
	} else {
		if err := s.checkPlan(ctx, planID); err != nil {
			return nil, err
		}
		tenant.PlanID = &planID
	}

	err = s.tenants.Update(ctx, tenant)
	s.audit.Record(ctx, AuditEntry{
		Actor:        actor,
		TenantID:     id,
		Action:       "tenant.plan",
		ResourceType: "tenant",
		ResourceID:   id,
		Err:          err,
		Metadata:     map[string]any{"plan_id": planID},
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// Delete removes a tenant with its memberships, API clients and domains
func (s *TenantService) Delete(ctx context.Context, actor *authz.Principal, id string) error {
	err := s.tenants.Delete(ctx, id)
	s.audit.Record(ctx, AuditEntry{Actor: actor, TenantID: id, Action: "tenant.delete", ResourceType: "tenant", ResourceID: id, Err: err})
	return err
}

// ListMembers retrieves a tenant's memberships in creation order
func (s *TenantService) ListMembers(ctx context.Context, tenantID string) ([]models.Membership, error) {
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.memberships.ListByTenant(ctx, tenantID)
}

// AddMember grants a user a role on a tenant. PLATFORM_ADMIN is never a
// membership role, and only an administrator of the owning partner may
// grant PARTNER_ADMIN.
func (s *TenantService) AddMember(ctx context.Context, actor *authz.Principal, tenantID string, req models.MemberRequest) (*models.Membership, error) {
	if !req.Role.ValidMembershipRole() {
		return nil, invalid("role %q cannot be granted on a tenant", req.Role)
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if req.Role == authz.RolePartnerAdmin {
		ok, err := s.access.CanAccessPartner(ctx, actor, tenant.PartnerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrForbidden
		}
	}

	user, err := s.lookupUser(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := checkQuota(ctx, s.plans, tenant, models.UsageMetricUsers, s.memberships.CountByTenant); err != nil {
		return nil, err
	}

	m := &models.Membership{UserID: user.ID, TenantID: tenantID, Role: req.Role}
	err = s.memberships.Create(ctx, m)
	s.audit.Record(ctx, AuditEntry{
		Actor:        actor,
		TenantID:     tenantID,
		Action:       "membership.create",
		ResourceType: "membership",
		ResourceID:   user.ID,
		Err:          err,
		Metadata:     map[string]any{"role": string(req.Role)},
	})
	if err != nil {
		return nil, conflictOr(err, "membership")
	}
	return m, nil
}

// RemoveMember revokes a user's membership on a tenant
func (s *TenantService) RemoveMember(ctx context.Context, actor *authz.Principal, tenantID, userID string) error {
	err := s.memberships.Delete(ctx, userID, tenantID)
	s.audit.Record(ctx, AuditEntry{Actor: actor, TenantID: tenantID, Action: "membership.delete", ResourceType: "membership", ResourceID: userID, Err: err})
	return err
}

// CreateClient creates an API client on a tenant and returns its secret once.
// The client also receives a membership so tenant scoping treats it like a user.
func (s *TenantService) CreateClient(ctx context.Context, actor *authz.Principal, tenantID string, req models.APIClientRequest) (*models.APIClientCredentials, error) {
	if req.Role != authz.RoleTenantAdmin && req.Role != authz.RoleTenantUser {
		return nil, invalid("api clients must be TENANT_ADMIN or TENANT_USER")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, fmt.Errorf("%w: tenant is %s", ErrConflict, tenant.Status)
	}

	secret, err := newClientSecret()
	if err != nil {
		return nil, err
	}
	hash, err := HashSecret(secret)
	if err != nil {
		return nil, err
	}

	client := &models.APIClient{TenantID: tenantID, Name: name, Role: req.Role, SecretHash: hash, IsActive: true}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, err
	}
	if err := s.memberships.Create(ctx, &models.Membership{UserID: client.ClientID, TenantID: tenantID, Role: req.Role}); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{Actor: actor, TenantID: tenantID, Action: "api_client.create", ResourceType: "api_client", ResourceID: client.ClientID})

	return &models.APIClientCredentials{Client: client, ClientSecret: secret}, nil
}

func (s *TenantService) lookupUser(ctx context.Context, req models.MemberRequest) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case req.UserID != "":
		user, err = s.users.GetByID(ctx, req.UserID)
	case req.Email != "":
		user, err = s.users.GetByEmail(ctx, req.Email)
	default:
		return nil, invalid("user_id or email is required")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid("unknown user")
	}
	return user, err
}

func (s *TenantService) checkPlan(ctx context.Context, planID string) error {
	_, err := s.plans.GetByID(ctx, planID)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("unknown plan %q", planID)
	}
	return err
}

// checkQuota rejects adding one more item when the tenant's plan caps metric
func checkQuota(ctx context.Context, plans *repository.PlanRepository, tenant *models.Tenant, metric models.UsageMetric, count func(context.Context, string) (int64, error)) error {
	if tenant.PlanID == nil {
		return nil
	}
	plan, err := plans.GetByID(ctx, *tenant.PlanID)
	if err != nil {
		return err
	}
	limit := plan.Limit(metric)
	if limit == 0 {
		return nil
	}
	n, err := count(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if n >= limit {
		return fmt.Errorf("%w: plan %s allows %d %s", ErrQuotaExceeded, plan.Code, limit, metric)
	}
	return nil
}
