package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DomainStatus is the verification state of a custom domain
type DomainStatus string

const (
	DomainStatusPending  DomainStatus = "PENDING"
	DomainStatusVerified DomainStatus = "VERIFIED"
)

// Domain is a custom hostname routed to a tenant
type Domain struct {
	ID                string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID          string       `gorm:"type:varchar(63);not null;index" json:"tenant_id"`
	Hostname          string       `gorm:"type:varchar(253);not null;uniqueIndex" json:"hostname"`
	Status            DomainStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	VerificationToken string       `gorm:"type:varchar(64);not null" json:"verification_token"`
	VerifiedAt        *time.Time   `json:"verified_at,omitempty"`
	IsPrimary         bool         `gorm:"default:false" json:"is_primary"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// TableName overrides the table name
func (Domain) TableName() string {
	return "domains"
}

// BeforeCreate hook
func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = DomainStatusPending
	}
	return nil
}
