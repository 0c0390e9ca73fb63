package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
)

var planCodePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// PlanService handles business logic for plans
type PlanService struct {
	plans *repository.PlanRepository
	audit *AuditService
}

// NewPlanService creates a new plan service
func NewPlanService(plans *repository.PlanRepository, audit *AuditService) *PlanService {
	return &PlanService{plans: plans, audit: audit}
}

// Create creates a plan
func (s *PlanService) Create(ctx context.Context, actor *authz.Principal, req models.PlanRequest) (*models.Plan, error) {
	if err := validatePlan(req); err != nil {
		return nil, err
	}
	plan := &models.Plan{}
	applyPlan(plan, req)

	err := s.plans.Create(ctx, plan)
	s.audit.Record(ctx, AuditEntry{Actor: actor, Action: "plan.create", ResourceType: "plan", ResourceID: plan.ID, Err: err})
	if err != nil {
		return nil, conflictOr(err, "plan "+req.Code)
	}
	return plan, nil
}

// Get retrieves a plan
func (s *PlanService) Get(ctx context.Context, id string) (*models.Plan, error) {
	return s.plans.GetByID(ctx, id)
}

// List retrieves all plans
func (s *PlanService) List(ctx context.Context) ([]models.Plan, error) {
	return s.plans.List(ctx)
}

// Update replaces a plan's fields
func (s *PlanService) Update(ctx context.Context, actor *authz.Principal, id string, req models.PlanRequest) (*models.Plan, error) {
	if err := validatePlan(req); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPlan(plan, req)

	err = s.plans.Update(ctx, plan)
	s.audit.Record(ctx, AuditEntry{Actor: actor, Action: "plan.update", ResourceType: "plan", ResourceID: id, Err: err})
	if err != nil {
		return nil, conflictOr(err, "plan "+req.Code)
	}
	return plan, nil
}

func validatePlan(req models.PlanRequest) error {
	if !planCodePattern.MatchString(req.Code) {
		return invalid("plan code %q must match %s", req.Code, planCodePattern)
	}
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if req.MaxAPICalls < 0 || req.MaxStorageMB < 0 || req.MaxUsers < 0 || req.MaxDomains < 0 {
		return invalid("quotas must not be negative")
	}
	return nil
}

func applyPlan(plan *models.Plan, req models.PlanRequest) {
	plan.Code = req.Code
	plan.Name = strings.TrimSpace(req.Name)
	plan.MaxAPICalls = req.MaxAPICalls
	plan.MaxStorageMB = req.MaxStorageMB
	plan.MaxUsers = req.MaxUsers
	plan.MaxDomains = req.MaxDomains
	plan.Features = req.Features
}
