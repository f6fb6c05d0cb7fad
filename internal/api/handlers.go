// Package api exposes HTTP handlers for triggering and managing syncs.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"example.com/fitbitsync/internal/auth"
	"example.com/fitbitsync/internal/domain"
)

// Synchronizer runs one sync pass for a user.
type Synchronizer interface {
	Synchronize(ctx context.Context, userID string) (*domain.SyncSummary, error)
	Unlink(ctx context.Context, userID string) error
}

// Handler coordinates HTTP requests with the sync orchestrator.
type Handler struct {
	syncer   Synchronizer
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(syncer Synchronizer) *Handler {
	return &Handler{
		syncer:   syncer,
		validate: validator.New(),
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/sync", h.sync)
	mux.HandleFunc("/v1/users/", h.userResource)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// SyncRequest is the trigger payload.
type SyncRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Trigger string `json:"trigger" validate:"omitempty,oneof=manual scheduled backfill"`
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", 0, "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", 0, "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeSyncWrite) {
		writeError(w, http.StatusForbidden, "forbidden", 0, "scope sync:write required")
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", 0, "unable to parse body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", 0, err.Error())
		return
	}

	summary, err := h.syncer.Synchronize(r.Context(), req.UserID)
	if err != nil {
		writeSyncError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) userResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	userID, suffix, found := strings.Cut(rest, "/")
	if !found || suffix != "link" || userID == "" {
		writeError(w, http.StatusNotFound, "not_found", 0, "unknown resource")
		return
	}

	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", 0, "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", 0, "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeLinkManage) {
		writeError(w, http.StatusForbidden, "forbidden", 0, "scope link:manage required")
		return
	}

	if err := h.syncer.Unlink(r.Context(), userID); err != nil {
		writeSyncError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeSyncError maps orchestrator errors onto client-visible status classes.
func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", 0, err.Error())
		return
	case errors.Is(err, domain.ErrNoCredentials):
		writeError(w, http.StatusNotFound, "no_credentials", 0, "user has no provider link")
		return
	}

	if perr, ok := domain.AsProviderError(err); ok {
		switch perr.Type {
		case domain.ProviderErrorExpiredToken, domain.ProviderErrorInvalidToken,
			domain.ProviderErrorInvalidGrant, domain.ProviderErrorInvalidClient:
			writeError(w, http.StatusUnauthorized, string(perr.Type), perr.Code(), perr.Message)
		case domain.ProviderErrorRateLimited:
			writeError(w, http.StatusTooManyRequests, string(perr.Type), perr.Code(), perr.Message)
		case domain.ProviderErrorUnavailable:
			writeError(w, http.StatusServiceUnavailable, string(perr.Type), perr.Code(), perr.Message)
		default:
			writeError(w, http.StatusBadGateway, string(perr.Type), perr.Code(), perr.Message)
		}
		return
	}

	writeError(w, http.StatusInternalServerError, "server_error", 0, err.Error())
}

// ErrorResponse is the error body shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code string, numericCode int, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Code: numericCode, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
