package models

import (
	"regexp"
	"time"
)

// TenantType describes how a tenant consumes the platform
type TenantType string

const (
	TenantTypeUI     TenantType = "UI"
	TenantTypeAPI    TenantType = "API"
	TenantTypeHybrid TenantType = "HYBRID"
)

// Valid reports whether t is a known tenant type
func (t TenantType) Valid() bool {
	switch t {
	case TenantTypeUI, TenantTypeAPI, TenantTypeHybrid:
		return true
	}
	return false
}

// TenantStatus is the lifecycle state of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
	TenantStatusArchived  TenantStatus = "ARCHIVED"
)

// Valid reports whether s is a known tenant status
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusActive, TenantStatusSuspended, TenantStatusArchived:
		return true
	}
	return false
}

// CanTransitionTo reports whether s may move to next. ARCHIVED is terminal.
func (s TenantStatus) CanTransitionTo(next TenantStatus) bool {
	if s == TenantStatusArchived || !next.Valid() {
		return false
	}
	return s != next
}

var tenantIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// ValidTenantID reports whether id is a usable tenant slug
func ValidTenantID(id string) bool {
	return tenantIDPattern.MatchString(id)
}

// Tenant is an isolated customer workspace owned by exactly one partner
type Tenant struct {
	ID         string       `gorm:"type:varchar(63);primaryKey" json:"id"`
	PartnerID  string       `gorm:"type:varchar(36);not null;index" json:"partner_id"`
	Name       string       `gorm:"type:varchar(255);not null" json:"name"`
	TenantType TenantType   `gorm:"type:varchar(20);not null" json:"tenant_type"`
	Status     TenantStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PlanID     *string      `gorm:"type:varchar(36);index" json:"plan_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// TableName overrides the table name
func (Tenant) TableName() string {
	return "tenants"
}
