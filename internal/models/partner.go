package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerStatus is the lifecycle state of a partner
type PartnerStatus string

const (
	PartnerStatusPending   PartnerStatus = "PENDING"
	PartnerStatusActive    PartnerStatus = "ACTIVE"
	PartnerStatusSuspended PartnerStatus = "SUSPENDED"
)

var partnerTransitions = map[PartnerStatus][]PartnerStatus{
	PartnerStatusPending:   {PartnerStatusActive},
	PartnerStatusActive:    {PartnerStatusSuspended},
	PartnerStatusSuspended: {PartnerStatusActive},
}

// CanTransitionTo reports whether s may move to next
func (s PartnerStatus) CanTransitionTo(next PartnerStatus) bool {
	for _, allowed := range partnerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Partner is a reseller that owns a group of tenants
type Partner struct {
	ID           string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string        `gorm:"type:varchar(255);not null" json:"name"`
	BillingEmail string        `gorm:"type:varchar(255);not null;uniqueIndex" json:"billing_email"`
	Status       PartnerStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TableName overrides the table name
func (Partner) TableName() string {
	return "partners"
}

// BeforeCreate hook
func (p *Partner) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PartnerStatusPending
	}
	return nil
}
