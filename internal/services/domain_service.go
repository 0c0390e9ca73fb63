package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/cache"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var hostnameLabel = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// TXTResolver looks up DNS TXT records. *net.Resolver satisfies it.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// CacheObserver receives hostname cache hits and misses
type CacheObserver interface {
	ObserveCache(hit bool)
}

// DomainConfig configures DomainService
type DomainConfig struct {
	VerificationPrefix string
	ResolveCacheTTL    time.Duration
}

// VerificationRecord is the TXT record a tenant must publish
type VerificationRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DomainService handles custom domains and hostname resolution
type DomainService struct {
	domains  *repository.DomainRepository
	tenants  *repository.TenantRepository
	plans    *repository.PlanRepository
	access   *authz.TenantAccessResolver
	dns      TXTResolver
	cache    cache.Cache
	cfg      DomainConfig
	observer CacheObserver
	audit    *AuditService
	now      func() time.Time
}

// NewDomainService creates a new domain service
func NewDomainService(
	domains *repository.DomainRepository,
	tenants *repository.TenantRepository,
	plans *repository.PlanRepository,
	access *authz.TenantAccessResolver,
	dns TXTResolver,
	c cache.Cache,
	cfg DomainConfig,
	observer CacheObserver,
	audit *AuditService,
) *DomainService {
	return &DomainService{
		domains:  domains,
		tenants:  tenants,
		plans:    plans,
		access:   access,
		dns:      dns,
		cache:    c,
		cfg:      cfg,
		observer: observer,
		audit:    audit,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create attaches a PENDING domain to a tenant the actor can reach
func (s *DomainService) Create(ctx context.Context, actor *authz.Principal, req models.DomainRequest) (*models.Domain, error) {
	hostname, err := normalizeHostname(req.Hostname)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTenant(ctx, actor, req.TenantID); err != nil {
		return nil, err
	}
	tenant, err := s.tenants.GetByID(ctx, req.TenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid("unknown tenant %q", req.TenantID)
	}
	if err != nil {
		return nil, err
	}
	if err := checkQuota(ctx, s.plans, tenant, models.UsageMetricDomains, s.domains.CountByTenant); err != nil {
		return nil, err
	}

	domain := &models.Domain{
		TenantID:          tenant.ID,
		Hostname:          hostname,
		Status:            models.DomainStatusPending,
		VerificationToken: strings.ReplaceAll(uuid.NewString(), "-", ""),
		IsPrimary:         req.IsPrimary,
	}
	err = s.domains.Create(ctx, domain)
	s.audit.Record(ctx, AuditEntry{Actor: actor, TenantID: tenant.ID, Action: "domain.create", ResourceType: "domain", ResourceID: domain.ID, Err: err})
	if err != nil {
		return nil, conflictOr(err, "hostname "+hostname)
	}
	return domain, nil
}

// Get retrieves a domain on a tenant the actor can reach
func (s *DomainService) Get(ctx context.Context, actor *authz.Principal, id string) (*models.Domain, error) {
	domain, err := s.domains.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTenant(ctx, actor, domain.TenantID); err != nil {
		return nil, err
	}
	return domain, nil
}

// List retrieves domains of one tenant, or of every tenant the actor can reach
func (s *DomainService) List(ctx context.Context, actor *authz.Principal, tenantID string) ([]models.Domain, error) {
	if tenantID != "" {
		if err := s.authorizeTenant(ctx, actor, tenantID); err != nil {
			return nil, err
		}
		return s.domains.ListByTenants(ctx, []string{tenantID})
	}

	ids, all, err := s.access.AccessibleTenants(ctx, actor)
	if err != nil {
		return nil, err
	}
	if all {
		return s.domains.ListByTenants(ctx, nil)
	}
	if ids == nil {
		ids = []string{}
	}
	return s.domains.ListByTenants(ctx, ids)
}

// Delete detaches a domain and evicts its cached resolution
func (s *DomainService) Delete(ctx context.Context, actor *authz.Principal, id string) error {
	domain, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.domains.Delete(ctx, id)
	s.audit.Record(ctx, AuditEntry{Actor: actor, TenantID: domain.TenantID, Action: "domain.delete", ResourceType: "domain", ResourceID: id, Err: err})
	if err != nil {
		return err
	}
	s.evict(ctx, domain.Hostname)
	return nil
}

// Verify checks the domain's TXT record and marks it VERIFIED when the
// published value matches the verification token.
func (s *DomainService) Verify(ctx context.Context, actor *authz.Principal, id string) (*models.Domain, error) {
	domain, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if domain.Status == models.DomainStatusVerified {
		return domain, nil
	}

	record := s.Record(domain)
	values, err := s.dns.LookupTXT(ctx, record.Name)
	if err != nil {
		log.Info().Err(err).Str("name", record.Name).Msg("TXT lookup failed")
		values = nil
	}
	if !containsTrimmed(values, record.Value) {
		s.audit.Record(ctx, AuditEntry{Actor: actor, TenantID: domain.TenantID, Action: "domain.verify", ResourceType: "domain", ResourceID: id, Err: ErrVerificationFailed})
		return nil, fmt.Errorf("%w: TXT record %s does not contain the verification token", ErrVerificationFailed, record.Name)
	}

	now := s.now()
	domain.Status = models.DomainStatusVerified
	domain.VerifiedAt = &now
	err = s.domains.Update(ctx, domain)
	s.audit.Record(ctx, AuditEntry{Actor: actor, TenantID: domain.TenantID, Action: "domain.verify", ResourceType: "domain", ResourceID: id, Err: err})
	if err != nil {
		return nil, err
	}
	s.evict(ctx, domain.Hostname)
	return domain, nil
}

// Record returns the TXT record that proves ownership of domain
func (s *DomainService) Record(domain *models.Domain) VerificationRecord {
	return VerificationRecord{
		Type:  "TXT",
		Name:  s.cfg.VerificationPrefix + "." + domain.Hostname,
		Value: domain.VerificationToken,
	}
}

// Resolve maps a verified hostname to its tenant id, through the cache
func (s *DomainService) Resolve(ctx context.Context, hostname string) (string, error) {
	hostname = strings.ToLower(strings.TrimSuffix(hostname, "."))
	key := cache.HostnameKey(hostname)

	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.observe(true)
		return string(cached), nil
	case !errors.Is(err, cache.ErrCacheMiss):
		log.Warn().Err(err).Str("hostname", hostname).Msg("Hostname cache read failed")
	}
	s.observe(false)

	domain, err := s.domains.GetVerifiedByHostname(ctx, hostname)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, []byte(domain.TenantID), s.cfg.ResolveCacheTTL); err != nil {
		log.Warn().Err(err).Str("hostname", hostname).Msg("Hostname cache write failed")
	}
	return domain.TenantID, nil
}

// FlushCache drops every cached hostname resolution
func (s *DomainService) FlushCache(ctx context.Context) error {
	return s.cache.Clear(ctx, cache.HostnamePattern)
}

func (s *DomainService) authorizeTenant(ctx context.Context, actor *authz.Principal, tenantID string) error {
	if tenantID == "" {
		return invalid("tenant_id is required")
	}
	ok, err := s.access.CanAccessTenant(ctx, actor, tenantID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *DomainService) evict(ctx context.Context, hostname string) {
	if err := s.cache.Delete(ctx, cache.HostnameKey(hostname)); err != nil {
		log.Warn().Err(err).Str("hostname", hostname).Msg("Hostname cache eviction failed")
	}
}

func (s *DomainService) observe(hit bool) {
	if s.observer != nil {
		s.observer.ObserveCache(hit)
	}
}

func normalizeHostname(raw string) (string, error) {
	host := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(raw), "."))
	if len(host) == 0 || len(host) > 253 {
		return "", invalid("invalid hostname %q", raw)
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return "", invalid("hostname %q must have at least two labels", raw)
	}
	for _, label := range labels {
		if !hostnameLabel.MatchString(label) {
			return "", invalid("invalid hostname %q", raw)
		}
	}
	return host, nil
}

func containsTrimmed(values []string, want string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == want {
			return true
		}
	}
	return false
}
