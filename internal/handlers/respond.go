package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// Error codes returned alongside the authorization codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeQuotaExceeded      = "QUOTA_EXCEEDED"
	CodeVerificationFailed = "VERIFICATION_FAILED"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope of every error response
type ErrorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// WriteError writes the error envelope
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeServiceError maps a service or repository error to a response.
// Unexpected errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var authErr *authz.Error
	switch {
	case errors.As(err, &authErr):
		WriteError(w, authErr.HTTPStatus(), string(authErr.Code), authErr.Message)
	case errors.Is(err, services.ErrValidation):
		WriteError(w, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, "resource not found")
	case errors.Is(err, services.ErrConflict), errors.Is(err, repository.ErrDuplicate):
		WriteError(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, services.ErrQuotaExceeded):
		WriteError(w, http.StatusConflict, CodeQuotaExceeded, err.Error())
	case errors.Is(err, services.ErrVerificationFailed):
		WriteError(w, http.StatusUnprocessableEntity, CodeVerificationFailed, err.Error())
	case errors.Is(err, services.ErrForbidden):
		WriteError(w, http.StatusForbidden, string(authz.CodeForbidden), "access denied")
	case errors.Is(err, services.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, string(authz.CodeUnauthorized), "invalid credentials")
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(msg)
		WriteError(w, http.StatusInternalServerError, string(authz.CodeInternalError), "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		WriteError(w, http.StatusBadRequest, CodeInvalidRequest, msg)
		return false
	}
	return true
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func principal(r *http.Request) *authz.Principal {
	return authz.PrincipalFromContext(r.Context())
}
