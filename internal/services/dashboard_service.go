package services

import (
	"context"
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
)

// Dashboard aggregates the tenants an actor can reach
type Dashboard struct {
	GeneratedAt      time.Time                    `json:"generated_at"`
	Tenants          int                          `json:"tenants"`
	TenantsByStatus  map[models.TenantStatus]int  `json:"tenants_by_status"`
	Domains          int                          `json:"domains"`
	VerifiedDomains  int                          `json:"verified_domains"`
	MonthlyUsage     map[models.UsageMetric]int64 `json:"monthly_usage"`
	TenantsOverQuota []string                     `json:"tenants_over_quota"`
}

// DashboardService builds the admin dashboard
type DashboardService struct {
	tenants *repository.TenantRepository
	domains *repository.DomainRepository
	usage   *UsageService
	access  *authz.TenantAccessResolver
	now     func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(tenants *repository.TenantRepository, domains *repository.DomainRepository, usage *UsageService, access *authz.TenantAccessResolver) *DashboardService {
	return &DashboardService{
		tenants: tenants,
		domains: domains,
		usage:   usage,
		access:  access,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Build aggregates counts and current-month usage over the actor's tenants
func (s *DashboardService) Build(ctx context.Context, actor *authz.Principal) (*Dashboard, error) {
	filter := repository.TenantFilter{}
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
	tenants, err := s.tenants.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		GeneratedAt:      s.now(),
		Tenants:          len(tenants),
		TenantsByStatus:  make(map[models.TenantStatus]int),
		MonthlyUsage:     make(map[models.UsageMetric]int64),
		TenantsOverQuota: []string{},
	}
	tenantIDs := make([]string, 0, len(tenants))
	for _, t := range tenants {
		d.TenantsByStatus[t.Status]++
		tenantIDs = append(tenantIDs, t.ID)

		summary, err := s.usage.Summary(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		over := false
		for _, m := range summary.Metrics {
			d.MonthlyUsage[m.Metric] += m.Used
			over = over || m.Exceeded
		}
		if over {
			d.TenantsOverQuota = append(d.TenantsOverQuota, t.ID)
		}
	}

	domains, err := s.domains.ListByTenants(ctx, tenantIDs)
	if err != nil {
		return nil, err
	}
	d.Domains = len(domains)
	for _, dom := range domains {
		if dom.Status == models.DomainStatusVerified {
			d.VerifiedDomains++
		}
	}
	return d, nil
}
