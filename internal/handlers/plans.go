package handlers

import (
	"net/http"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/go-chi/chi/v5"
)

type PlanHandler struct {
	plans *services.PlanService
}

func NewPlanHandler(plans *services.PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to list plans")
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plan, err := h.plans.Create(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create plan")
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.plans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to get plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plan, err := h.plans.Update(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
