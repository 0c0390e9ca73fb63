package handlers

import (
	"net/http"
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/services"
)

type AdminHandler struct {
	dashboard *services.DashboardService
	audit     *services.AuditService
	users     *services.UserService
	domains   *services.DomainService
}

func NewAdminHandler(dashboard *services.DashboardService, audit *services.AuditService, users *services.UserService, domains *services.DomainService) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, audit: audit, users: users, domains: domains}
}

// Dashboard aggregates the tenants the caller can reach
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Build(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to build dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Audit lists audit entries filtered by actor_id, tenant_id, action and since
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.AuditFilter{
		ActorID:  q.Get("actor_id"),
		TenantID: q.Get("tenant_id"),
		Action:   q.Get("action"),
		Limit:    queryInt(r, "limit", 100),
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeInvalidRequest, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since.UTC()
	}

	logs, err := h.audit.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, r, err, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Create(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// FlushCache drops every cached hostname resolution
func (h *AdminHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	if err := h.domains.FlushCache(r.Context()); err != nil {
		writeServiceError(w, r, err, "Failed to flush cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}
