package handlers

import (
	"net/http"

	"github.com/avantlehq/core-avantle-ai/internal/services"
)

type SystemHandler struct {
	system *services.SystemService
}

func NewSystemHandler(system *services.SystemService) *SystemHandler {
	return &SystemHandler{system: system}
}

func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.system.Info())
}

func (h *SystemHandler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.system.Rules())
}
