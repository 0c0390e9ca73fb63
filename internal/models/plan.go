package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Plan is a subscription tier with usage quotas. A zero quota is unlimited.
type Plan struct {
	ID           string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	Code         string            `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Name         string            `gorm:"type:varchar(255);not null" json:"name"`
	MaxAPICalls  int64             `gorm:"not null;default:0" json:"max_api_calls"`
	MaxStorageMB int64             `gorm:"not null;default:0" json:"max_storage_mb"`
	MaxUsers     int64             `gorm:"not null;default:0" json:"max_users"`
	MaxDomains   int64             `gorm:"not null;default:0" json:"max_domains"`
	Features     datatypes.JSONMap `json:"features"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TableName overrides the table name
func (Plan) TableName() string {
	return "plans"
}

// BeforeCreate hook
func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Limit returns the quota for metric, or 0 if unlimited or unknown
func (p *Plan) Limit(metric UsageMetric) int64 {
	switch metric {
	case UsageMetricAPICalls:
		return p.MaxAPICalls
	case UsageMetricStorageMB:
		return p.MaxStorageMB
	case UsageMetricUsers:
		return p.MaxUsers
	case UsageMetricDomains:
		return p.MaxDomains
	}
	return 0
}
