package handlers

import (
	"net/http"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type meResponse struct {
	ID          string                `json:"id"`
	Email       string                `json:"email,omitempty"`
	Role        authz.Role            `json:"role"`
	Memberships []authz.TenantContext `json:"memberships"`
}

// Login exchanges an email and password for a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tok, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to log in")
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// Token exchanges API client credentials for a token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req models.ClientCredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tok, err := h.auth.ClientCredentials(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to issue client token")
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// Me returns the principal carried by the request's token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		WriteError(w, http.StatusUnauthorized, string(authz.CodeUnauthorized), "authentication required")
		return
	}
	memberships := p.Memberships
	if memberships == nil {
		memberships = []authz.TenantContext{}
	}
	writeJSON(w, http.StatusOK, meResponse{ID: p.ID, Email: p.Email, Role: p.Role, Memberships: memberships})
}

// Refresh re-issues the caller's token from current memberships
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	tok, err := h.auth.Refresh(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to refresh token")
		return
	}
	writeJSON(w, http.StatusOK, tok)
}
