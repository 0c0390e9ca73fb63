package repository

import (
	"context"
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"gorm.io/gorm"
)

// UsageRepository handles usage record database operations
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Create creates a new usage record
func (r *UsageRepository) Create(ctx context.Context, record *models.UsageRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return wrapErr("failed to create usage record", err)
	}
	return nil
}

// SumByMetric totals a tenant's usage per metric within [from, to)
func (r *UsageRepository) SumByMetric(ctx context.Context, tenantID string, from, to time.Time) (map[models.UsageMetric]int64, error) {
	var rows []struct {
		Metric models.UsageMetric
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Select("metric, SUM(quantity) AS total").
		Where("tenant_id = ? AND recorded_at >= ? AND recorded_at < ?", tenantID, from, to).
		Group("metric").
		Scan(&rows).Error; err != nil {
		return nil, wrapErr("failed to sum usage", err)
	}
	totals := make(map[models.UsageMetric]int64, len(rows))
	for _, row := range rows {
		totals[row.Metric] = row.Total
	}
	return totals, nil
}

// List retrieves a tenant's records since a time, newest first
func (r *UsageRepository) List(ctx context.Context, tenantID string, since time.Time, limit int) ([]models.UsageRecord, error) {
	records := []models.UsageRecord{}
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND recorded_at >= ?", tenantID, since).
		Order("recorded_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, wrapErr("failed to list usage records", err)
	}
	return records, nil
}
