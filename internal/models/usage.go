package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageMetric names a metered resource
type UsageMetric string

const (
	UsageMetricAPICalls  UsageMetric = "api_calls"
	UsageMetricStorageMB UsageMetric = "storage_mb"
	UsageMetricUsers     UsageMetric = "users"
	UsageMetricDomains   UsageMetric = "domains"
)

// UsageMetrics returns every metric in display order
func UsageMetrics() []UsageMetric {
	return []UsageMetric{UsageMetricAPICalls, UsageMetricStorageMB, UsageMetricUsers, UsageMetricDomains}
}

// Valid reports whether m is a known metric
func (m UsageMetric) Valid() bool {
	for _, known := range UsageMetrics() {
		if m == known {
			return true
		}
	}
	return false
}

// UsageRecord is one metered usage sample
type UsageRecord struct {
	ID         string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID   string      `gorm:"type:varchar(63);not null;index:idx_usage_tenant_time" json:"tenant_id"`
	Metric     UsageMetric `gorm:"type:varchar(32);not null" json:"metric"`
	Quantity   int64       `gorm:"not null" json:"quantity"`
	RecordedAt time.Time   `gorm:"not null;index:idx_usage_tenant_time" json:"recorded_at"`
}

// TableName overrides the table name
func (UsageRecord) TableName() string {
	return "usage_records"
}

// BeforeCreate hook
func (u *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
