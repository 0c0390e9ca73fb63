package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
)

// PartnerService handles business logic for partners
type PartnerService struct {
	partners *repository.PartnerRepository
	access   *authz.TenantAccessResolver
	audit    *AuditService
}

// NewPartnerService creates a new partner service
func NewPartnerService(partners *repository.PartnerRepository, access *authz.TenantAccessResolver, audit *AuditService) *PartnerService {
	return &PartnerService{partners: partners, access: access, audit: audit}
}

// Create creates a partner in PENDING status
func (s *PartnerService) Create(ctx context.Context, actor *authz.Principal, req models.PartnerRequest) (*models.Partner, error) {
	email, err := normalizeEmail(req.BillingEmail)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}

	partner := &models.Partner{Name: name, BillingEmail: email, Status: models.PartnerStatusPending}
	err = s.partners.Create(ctx, partner)
	s.audit.Record(ctx, AuditEntry{Actor: actor, Action: "partner.create", ResourceType: "partner", ResourceID: partner.ID, Err: err})
	if err != nil {
		return nil, conflictOr(err, "partner billing email")
	}
	return partner, nil
}

// Get retrieves a partner the actor can reach
func (s *PartnerService) Get(ctx context.Context, actor *authz.Principal, id string) (*models.Partner, error) {
	ok, err := s.access.CanAccessPartner(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.partners.GetByID(ctx, id)
}

// List retrieves the partners the actor can reach
func (s *PartnerService) List(ctx context.Context, actor *authz.Principal) ([]models.Partner, error) {
	ids, all, err := s.access.AdministeredPartners(ctx, actor)
	if err != nil {
		return nil, err
	}
	if all {
		return s.partners.List(ctx, nil)
	}
	if ids == nil {
		ids = []string{}
	}
	return s.partners.List(ctx, ids)
}

// Update changes a partner's name and billing email
func (s *PartnerService) Update(ctx context.Context, actor *authz.Principal, id string, req models.PartnerRequest) (*models.Partner, error) {
	partner, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		partner.Name = name
	}
	if req.BillingEmail != "" {
		email, err := normalizeEmail(req.BillingEmail)
		if err != nil {
			return nil, err
		}
		partner.BillingEmail = email
	}

	err = s.partners.Update(ctx, partner)
	s.audit.Record(ctx, AuditEntry{Actor: actor, Action: "partner.update", ResourceType: "partner", ResourceID: id, Err: err})
	if err != nil {
		return nil, conflictOr(err, "partner billing email")
	}
	return partner, nil
}

// UpdateStatus moves a partner through PENDING → ACTIVE ⇄ SUSPENDED
func (s *PartnerService) UpdateStatus(ctx context.Context, actor *authz.Principal, id string, status models.PartnerStatus) (*models.Partner, error) {
	partner, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !partner.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: partner cannot move from %s to %s", ErrConflict, partner.Status, status)
	}

	from := partner.Status
	partner.Status = status
	err = s.partners.Update(ctx, partner)
	s.audit.Record(ctx, AuditEntry{
		Actor:        actor,
		Action:       "partner.status",
		ResourceType: "partner",
		ResourceID:   id,
		Err:          err,
		Metadata:     map[string]any{"from": string(from), "to": string(status)},
	})
	if err != nil {
		return nil, err
	}
	return partner, nil
}

// Delete removes a partner that owns no tenants
func (s *PartnerService) Delete(ctx context.Context, actor *authz.Principal, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	n, err := s.partners.CountTenants(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: partner still owns %d tenants", ErrConflict, n)
	}

	err = s.partners.Delete(ctx, id)
	s.audit.Record(ctx, AuditEntry{Actor: actor, Action: "partner.delete", ResourceType: "partner", ResourceID: id, Err: err})
	return err
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", invalid("invalid email address %q", raw)
	}
	return strings.ToLower(addr.Address), nil
}
