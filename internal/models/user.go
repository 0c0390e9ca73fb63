package models

import (
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a human principal
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Membership binds a user to a tenant with a role
type Membership struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_membership_user_tenant" json:"user_id"`
	TenantID  string     `gorm:"type:varchar(63);not null;uniqueIndex:idx_membership_user_tenant;index" json:"tenant_id"`
	Role      authz.Role `gorm:"type:varchar(32);not null" json:"role"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`

	Tenant *Tenant `gorm:"constraint:OnDelete:CASCADE" json:"tenant,omitempty"`
}

// TableName overrides the table name
func (Membership) TableName() string {
	return "memberships"
}

// BeforeCreate hook
func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// APIClient is a machine principal bound to one tenant
type APIClient struct {
	ClientID   string     `gorm:"type:varchar(36);primaryKey" json:"client_id"`
	TenantID   string     `gorm:"type:varchar(63);not null;index" json:"tenant_id"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Role       authz.Role `gorm:"type:varchar(32);not null" json:"role"`
	SecretHash string     `gorm:"type:text;not null" json:"-"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName overrides the table name
func (APIClient) TableName() string {
	return "api_clients"
}

// BeforeCreate hook
func (c *APIClient) BeforeCreate(tx *gorm.DB) error {
	if c.ClientID == "" {
		c.ClientID = uuid.NewString()
	}
	return nil
}
