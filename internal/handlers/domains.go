package handlers

import (
	"net/http"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/go-chi/chi/v5"
)

type DomainHandler struct {
	domains *services.DomainService
}

func NewDomainHandler(domains *services.DomainService) *DomainHandler {
	return &DomainHandler{domains: domains}
}

type domainResponse struct {
	*models.Domain
	Verification *services.VerificationRecord `json:"verification,omitempty"`
}

func (h *DomainHandler) withRecord(d *models.Domain) domainResponse {
	resp := domainResponse{Domain: d}
	if d.Status == models.DomainStatusPending {
		rec := h.domains.Record(d)
		resp.Verification = &rec
	}
	return resp
}

// List returns domains of one tenant (tenant_id) or of every reachable tenant
func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	domains, err := h.domains.List(r.Context(), principal(r), r.URL.Query().Get("tenant_id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to list domains")
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

// Create attaches a domain and returns the TXT record that verifies it
func (h *DomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.DomainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	domain, err := h.domains.Create(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create domain")
		return
	}
	writeJSON(w, http.StatusCreated, h.withRecord(domain))
}

func (h *DomainHandler) Get(w http.ResponseWriter, r *http.Request) {
	domain, err := h.domains.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to get domain")
		return
	}
	writeJSON(w, http.StatusOK, h.withRecord(domain))
}

func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.domains.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "Failed to delete domain")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Verify checks the domain's TXT record
func (h *DomainHandler) Verify(w http.ResponseWriter, r *http.Request) {
	domain, err := h.domains.Verify(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to verify domain")
		return
	}
	writeJSON(w, http.StatusOK, h.withRecord(domain))
}

type resolveResponse struct {
	Hostname string `json:"hostname"`
	TenantID string `json:"tenant_id"`
}

// Resolve maps a verified hostname to its tenant
func (h *DomainHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	hostname := chi.URLParam(r, "hostname")
	tenantID, err := h.domains.Resolve(r.Context(), hostname)
	if err != nil {
		writeServiceError(w, r, err, "Failed to resolve hostname")
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Hostname: hostname, TenantID: tenantID})
}
