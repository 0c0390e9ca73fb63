package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID           string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	ActorID      string            `gorm:"type:varchar(36);index" json:"actor_id"`
	TenantID     string            `gorm:"type:varchar(63);index" json:"tenant_id,omitempty"`
	Action       string            `gorm:"type:varchar(100);not null;index" json:"action"`
	ResourceType string            `gorm:"type:varchar(50);index" json:"resource_type"`
	ResourceID   string            `gorm:"type:varchar(255);index" json:"resource_id"`
	IPAddress    string            `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent    string            `gorm:"type:text" json:"user_agent"`
	Status       string            `gorm:"type:varchar(20);index" json:"status"` // success, failure
	ErrorMessage string            `gorm:"type:text" json:"error_message,omitempty"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"index" json:"timestamp"`
}

// TableName overrides the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate hook
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AuditFilter narrows an audit log query
type AuditFilter struct {
	ActorID  string
	TenantID string
	Action   string
	Since    time.Time
	Limit    int
}
