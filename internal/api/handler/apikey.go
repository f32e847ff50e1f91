package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/middleware"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/response"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/validation"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/apikey"
)

// createAPIKeyRequest is the request body for POST /api/keys.
type createAPIKeyRequest struct {
	Name        string         `json:"name"`
	Key         string         `json:"key"`
	Service     string         `json:"service"`
	Description *string        `json:"description,omitempty"`
	IsActive    *bool          `json:"is_active,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// updateAPIKeyRequest is the request body for PUT /api/keys/{id}.
// Pointer fields distinguish "not provided" from zero values.
type updateAPIKeyRequest struct {
	Name        *string         `json:"name,omitempty"`
	Key         *string         `json:"key,omitempty"`
	Service     *string         `json:"service,omitempty"`
	Description *string         `json:"description,omitempty"`
	IsActive    *bool           `json:"is_active,omitempty"`
	Metadata    *map[string]any `json:"metadata,omitempty"`
}

// apiKeyResponse is the API representation of an API key record. The key
// value is returned in plaintext to authorized callers.
type apiKeyResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Key         string         `json:"key"`
	Service     string         `json:"service"`
	Description *string        `json:"description"`
	IsActive    bool           `json:"is_active"`
	Metadata    map[string]any `json:"metadata"`
	OwnerID     int64          `json:"owner_id"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   *string        `json:"updated_at"`
}

// toAPIKeyResponse converts an API key model to its API response representation.
func toAPIKeyResponse(k *apikey.APIKey) apiKeyResponse {
	resp := apiKeyResponse{
		ID:          k.ID,
		Name:        k.Name,
		Key:         k.Key,
		Service:     k.Service,
		Description: k.Description,
		IsActive:    k.IsActive,
		Metadata:    k.Metadata,
		OwnerID:     k.OwnerID,
		CreatedAt:   k.CreatedAt.UTC().Format(time.RFC3339),
	}
	if k.UpdatedAt != nil {
		updated := k.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	return resp
}

// APIKeyHandler handles API key CRUD endpoints.
type APIKeyHandler struct {
	repo apikey.Repository
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(repo apikey.Repository) *APIKeyHandler {
	return &APIKeyHandler{repo: repo}
}

// Create handles POST /api/keys. The key is always stored under the caller
// as owner.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req createAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Service = strings.TrimSpace(req.Service)

	fieldErrors := validation.ValidateCreateAPIKeyRequest(validation.CreateAPIKeyRequest{
		Name:    req.Name,
		Key:     req.Key,
		Service: req.Service,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	key := &apikey.APIKey{
		Name:        req.Name,
		Key:         req.Key,
		Service:     req.Service,
		Description: req.Description,
		IsActive:    isActive,
		Metadata:    req.Metadata,
		OwnerID:     identity.UserID,
	}

	if err := h.repo.Create(r.Context(), key); err != nil {
		slog.Error("failed to create api key", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toAPIKeyResponse(key), requestID)
}

// parseKeyFilter reads the service/is_active query parameters shared by the
// owner and admin listings. Writes a 400 and returns ok=false on malformed
// values.
func parseKeyFilter(w http.ResponseWriter, r *http.Request, requestID string) (apikey.ListFilter, bool) {
	var filter apikey.ListFilter

	if v := r.URL.Query().Get("service"); v != "" {
		filter.Service = &v
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_PARAM", "is_active must be true or false", requestID)
			return filter, false
		}
		filter.IsActive = &active
	}

	return filter, true
}

// List handles GET /api/keys. Restricted to the caller's own keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	filter, ok := parseKeyFilter(w, r, requestID)
	if !ok {
		return
	}

	keys, err := h.repo.ListByOwner(r.Context(), identity.UserID, filter)
	if err != nil {
		slog.Error("failed to list api keys", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys", requestID)
		return
	}

	items := make([]apiKeyResponse, 0, len(keys))
	for i := range keys {
		items = append(items, toAPIKeyResponse(&keys[i]))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// AdminList handles GET /api/keys/admin: keys across all owners with
// skip/limit pagination. Routed behind the admin gate.
func (h *APIKeyHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	filter, ok := parseKeyFilter(w, r, requestID)
	if !ok {
		return
	}

	skip, limit, ok := parseSkipLimit(w, r, requestID)
	if !ok {
		return
	}

	keys, err := h.repo.ListAll(r.Context(), apikey.AdminListFilter{
		ListFilter: filter,
		Skip:       skip,
		Limit:      limit,
	})
	if err != nil {
		slog.Error("failed to list all api keys", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys", requestID)
		return
	}

	items := make([]apiKeyResponse, 0, len(keys))
	for i := range keys {
		items = append(items, toAPIKeyResponse(&keys[i]))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// getAuthorized loads a key by path id and applies the owner-or-admin check.
// Writes the error response and returns nil when access is denied or the key
// does not exist. Missing keys return 404 to all callers before the 403
// ownership check.
func (h *APIKeyHandler) getAuthorized(w http.ResponseWriter, r *http.Request, requestID string) *apikey.APIKey {
	identity := middleware.GetIdentity(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer", requestID)
		return nil
	}

	key, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apikey.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "API key not found", requestID)
			return nil
		}
		slog.Error("failed to get api key", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get API key", requestID)
		return nil
	}

	if !identity.CanAccess(key.OwnerID) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not authorized to access this API key", requestID)
		return nil
	}

	return key
}

// GetByID handles GET /api/keys/{id}.
func (h *APIKeyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	key := h.getAuthorized(w, r, requestID)
	if key == nil {
		return
	}

	response.Success(w, http.StatusOK, toAPIKeyResponse(key), requestID)
}

// Update handles PUT /api/keys/{id}. Only fields present in the payload are
// applied.
func (h *APIKeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	key := h.getAuthorized(w, r, requestID)
	if key == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req updateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	updated, err := h.repo.Update(r.Context(), key.ID, apikey.UpdateFields{
		Name:        req.Name,
		Key:         req.Key,
		Service:     req.Service,
		Description: req.Description,
		IsActive:    req.IsActive,
		Metadata:    req.Metadata,
	})
	if err != nil {
		if errors.Is(err, apikey.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "API key not found", requestID)
			return
		}
		slog.Error("failed to update api key", "error", err, "id", key.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update API key", requestID)
		return
	}

	response.Success(w, http.StatusOK, toAPIKeyResponse(updated), requestID)
}

// Delete handles DELETE /api/keys/{id}. Hard delete.
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	key := h.getAuthorized(w, r, requestID)
	if key == nil {
		return
	}

	if err := h.repo.Delete(r.Context(), key.ID); err != nil {
		if errors.Is(err, apikey.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "API key not found", requestID)
			return
		}
		slog.Error("failed to delete api key", "error", err, "id", key.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete API key", requestID)
		return
	}

	response.NoContent(w)
}
