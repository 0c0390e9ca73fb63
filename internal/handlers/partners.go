package handlers

import (
	"net/http"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/go-chi/chi/v5"
)

type PartnerHandler struct {
	partners *services.PartnerService
}

func NewPartnerHandler(partners *services.PartnerService) *PartnerHandler {
	return &PartnerHandler{partners: partners}
}

// List returns the partners the caller can reach
func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	partners, err := h.partners.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to list partners")
		return
	}
	writeJSON(w, http.StatusOK, partners)
}

// Create creates a partner
func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.PartnerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	partner, err := h.partners.Create(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create partner")
		return
	}
	writeJSON(w, http.StatusCreated, partner)
}

// Get returns one partner
func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	partner, err := h.partners.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to get partner")
		return
	}
	writeJSON(w, http.StatusOK, partner)
}

// Update changes a partner's name or billing email
func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.PartnerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	partner, err := h.partners.Update(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update partner")
		return
	}
	writeJSON(w, http.StatusOK, partner)
}

// UpdateStatus moves a partner to a new status
func (h *PartnerHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.PartnerStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	partner, err := h.partners.UpdateStatus(r.Context(), principal(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update partner status")
		return
	}
	writeJSON(w, http.StatusOK, partner)
}

// Delete removes a partner without tenants
func (h *PartnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.partners.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "Failed to delete partner")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
