package services

import (
	"context"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
	"github.com/rs/zerolog/log"
)

type clientInfoKey struct{}

// ClientInfo describes the caller of a request for the audit trail
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// WithClientInfo attaches caller details to ctx
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

func clientInfo(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

// AuditEntry is one mutating operation to record
type AuditEntry struct {
	Actor        *authz.Principal
	TenantID     string
	Action       string
	ResourceType string
	ResourceID   string
	Err          error
	Metadata     map[string]any
}

// AuditService records and queries the audit trail
type AuditService struct {
	repo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record stores entry. Failures are logged and never fail the audited operation.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	info := clientInfo(ctx)
	entryLog := &models.AuditLog{
		TenantID:     entry.TenantID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    info.IPAddress,
		UserAgent:    info.UserAgent,
		Status:       "success",
		Metadata:     entry.Metadata,
	}
	if entry.Actor != nil {
		entryLog.ActorID = entry.Actor.ID
	}
	if entry.Err != nil {
		entryLog.Status = "failure"
		entryLog.ErrorMessage = entry.Err.Error()
	}

	// The audited operation may have been cancelled after it committed.
	if err := s.repo.Create(context.WithoutCancel(ctx), entryLog); err != nil {
		log.Warn().Err(err).Str("action", entry.Action).Msg("Failed to write audit log")
	}
}

// List retrieves audit entries
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}
