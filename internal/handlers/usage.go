package handlers

import (
	"net/http"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/go-chi/chi/v5"
)

type UsageHandler struct {
	usage *services.UsageService
}

func NewUsageHandler(usage *services.UsageService) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// Summary returns the tenant's usage for the current month
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.usage.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to summarize usage")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Records lists the tenant's usage samples for the current month
func (h *UsageHandler) Records(w http.ResponseWriter, r *http.Request) {
	records, err := h.usage.Records(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit", 100))
	if err != nil {
		writeServiceError(w, r, err, "Failed to list usage records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Record stores a usage sample and returns the updated summary
func (h *UsageHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req models.UsageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	summary, err := h.usage.Record(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to record usage")
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}
