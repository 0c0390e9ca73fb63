package services

import (
	"context"
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
)

// MetricUsage is one metric's consumption against its plan limit. Limit 0
// means unlimited.
type MetricUsage struct {
	Metric    models.UsageMetric `json:"metric"`
	Used      int64              `json:"used"`
	Limit     int64              `json:"limit"`
	Remaining int64              `json:"remaining"`
	Exceeded  bool               `json:"exceeded"`
	Unlimited bool               `json:"unlimited"`
}

// UsageSummary is a tenant's usage for the current calendar month (UTC)
type UsageSummary struct {
	TenantID    string        `json:"tenant_id"`
	PlanCode    string        `json:"plan_code,omitempty"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Metrics     []MetricUsage `json:"metrics"`
}

// UsageService records and summarizes metered usage
type UsageService struct {
	usage   *repository.UsageRepository
	tenants *repository.TenantRepository
	plans   *repository.PlanRepository
	audit   *AuditService
	now     func() time.Time
}

// NewUsageService creates a new usage service
func NewUsageService(usage *repository.UsageRepository, tenants *repository.TenantRepository, plans *repository.PlanRepository, audit *AuditService) *UsageService {
	return &UsageService{
		usage:   usage,
		tenants: tenants,
		plans:   plans,
		audit:   audit,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record stores a usage sample and returns the updated summary. Exceeding a
// quota is reported in the summary, never rejected.
func (s *UsageService) Record(ctx context.Context, actor *authz.Principal, tenantID string, req models.UsageRequest) (*UsageSummary, error) {
	if !req.Metric.Valid() {
		return nil, invalid("unknown metric %q", req.Metric)
	}
	if req.Quantity <= 0 {
		return nil, invalid("quantity must be positive")
	}
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}

	recordedAt := s.now()
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}
	record := &models.UsageRecord{TenantID: tenantID, Metric: req.Metric, Quantity: req.Quantity, RecordedAt: recordedAt}
	err := s.usage.Create(ctx, record)
	s.audit.Record(ctx, AuditEntry{
		Actor:        actor,
		TenantID:     tenantID,
		Action:       "usage.record",
		ResourceType: "usage_record",
		ResourceID:   record.ID,
		Err:          err,
		Metadata:     map[string]any{"metric": string(req.Metric), "quantity": req.Quantity},
	})
	if err != nil {
		return nil, err
	}
	return s.Summary(ctx, tenantID)
}

// Summary totals a tenant's usage for the current month against its plan
func (s *UsageService) Summary(ctx context.Context, tenantID string) (*UsageSummary, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var plan *models.Plan
	if tenant.PlanID != nil {
		if plan, err = s.plans.GetByID(ctx, *tenant.PlanID); err != nil {
			return nil, err
		}
	}

	start, end := monthBounds(s.now())
	totals, err := s.usage.SumByMetric(ctx, tenantID, start, end)
	if err != nil {
		return nil, err
	}

	summary := &UsageSummary{TenantID: tenantID, PeriodStart: start, PeriodEnd: end}
	if plan != nil {
		summary.PlanCode = plan.Code
	}
	for _, metric := range models.UsageMetrics() {
		var limit int64
		if plan != nil {
			limit = plan.Limit(metric)
		}
		summary.Metrics = append(summary.Metrics, metricUsage(metric, totals[metric], limit))
	}
	return summary, nil
}

// Records lists a tenant's samples for the current month, newest first
func (s *UsageService) Records(ctx context.Context, tenantID string, limit int) ([]models.UsageRecord, error) {
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	start, _ := monthBounds(s.now())
	return s.usage.List(ctx, tenantID, start, limit)
}

func metricUsage(metric models.UsageMetric, used, limit int64) MetricUsage {
	if limit == 0 {
		return MetricUsage{Metric: metric, Used: used, Unlimited: true}
	}
	return MetricUsage{
		Metric:    metric,
		Used:      used,
		Limit:     limit,
		Remaining: max(limit-used, 0),
		Exceeded:  used > limit,
	}
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
