package models

import (
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
)

// LoginRequest represents a password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ClientCredentialsRequest represents an API client token request
type ClientCredentialsRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// PartnerRequest represents a request to create or update a partner
type PartnerRequest struct {
	Name         string `json:"name"`
	BillingEmail string `json:"billing_email"`
}

// PartnerStatusRequest represents a partner status change
type PartnerStatusRequest struct {
	Status PartnerStatus `json:"status"`
}

// TenantRequest represents a request to create a tenant
type TenantRequest struct {
	ID         string     `json:"id"`
	PartnerID  string     `json:"partner_id"`
	Name       string     `json:"name"`
	TenantType TenantType `json:"tenant_type"`
	PlanID     string     `json:"plan_id,omitempty"`
}

// TenantUpdateRequest represents a tenant update. Empty fields are left unchanged.
type TenantUpdateRequest struct {
	Name       string     `json:"name,omitempty"`
	TenantType TenantType `json:"tenant_type,omitempty"`
}

// TenantStatusRequest represents a tenant status change
type TenantStatusRequest struct {
	Status TenantStatus `json:"status"`
}

// TenantPlanRequest assigns a plan. An empty plan id clears it.
type TenantPlanRequest struct {
	PlanID string `json:"plan_id"`
}

// MemberRequest adds a user to a tenant by id or email
type MemberRequest struct {
	UserID string     `json:"user_id,omitempty"`
	Email  string     `json:"email,omitempty"`
	Role   authz.Role `json:"role"`
}

// APIClientRequest represents a request to create an API client
type APIClientRequest struct {
	Name string     `json:"name"`
	Role authz.Role `json:"role"`
}

// APIClientCredentials is returned once when an API client is created
type APIClientCredentials struct {
	Client       *APIClient `json:"client"`
	ClientSecret string     `json:"client_secret"`
}

// PlanRequest represents a request to create or update a plan
type PlanRequest struct {
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	MaxAPICalls  int64          `json:"max_api_calls"`
	MaxStorageMB int64          `json:"max_storage_mb"`
	MaxUsers     int64          `json:"max_users"`
	MaxDomains   int64          `json:"max_domains"`
	Features     map[string]any `json:"features,omitempty"`
}

// DomainRequest represents a request to attach a custom domain
type DomainRequest struct {
	TenantID  string `json:"tenant_id"`
	Hostname  string `json:"hostname"`
	IsPrimary bool   `json:"is_primary"`
}

// UsageRequest records usage for a tenant
type UsageRequest struct {
	Metric     UsageMetric `json:"metric"`
	Quantity   int64       `json:"quantity"`
	RecordedAt *time.Time  `json:"recorded_at,omitempty"`
}

// UserRequest represents a request to create a user
type UserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
