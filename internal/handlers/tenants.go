package handlers

import (
	"net/http"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/go-chi/chi/v5"
)

type TenantHandler struct {
	tenants *services.TenantService
}

func NewTenantHandler(tenants *services.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// List returns the tenants the caller can reach, optionally filtered by partner_id
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context(), principal(r), r.URL.Query().Get("partner_id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to list tenants")
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// Create creates a tenant under a partner
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.TenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tenant, err := h.tenants.Create(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create tenant")
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

// Get returns one tenant
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenants.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to get tenant")
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// Update renames a tenant or changes its type
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.TenantUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tenant, err := h.tenants.Update(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update tenant")
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// UpdateStatus suspends, reactivates or archives a tenant
func (h *TenantHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.TenantStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tenant, err := h.tenants.UpdateStatus(r.Context(), principal(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update tenant status")
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// AssignPlan sets or clears a tenant's plan
func (h *TenantHandler) AssignPlan(w http.ResponseWriter, r *http.Request) {
	var req models.TenantPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tenant, err := h.tenants.AssignPlan(r.Context(), principal(r), chi.URLParam(r, "id"), req.PlanID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to assign plan")
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// Delete removes a tenant
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tenants.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "Failed to delete tenant")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers returns a tenant's memberships
func (h *TenantHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.tenants.ListMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to list members")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// AddMember grants a user a role on a tenant
func (h *TenantHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req models.MemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	member, err := h.tenants.AddMember(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to add member")
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// RemoveMember revokes a user's membership
func (h *TenantHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.tenants.RemoveMember(r.Context(), principal(r), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to remove member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateClient creates an API client and returns its secret once
func (h *TenantHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req models.APIClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	creds, err := h.tenants.CreateClient(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create api client")
		return
	}
	writeJSON(w, http.StatusCreated, creds)
}
