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
	"github.com/suchetaslalom-sf/mcp-key-server/internal/npmpkg"
)

// createPackageRequest is the request body for POST /api/npm/packages.
type createPackageRequest struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description *string        `json:"description,omitempty"`
	IsPrivate   *bool          `json:"is_private,omitempty"`
	PackageJSON map[string]any `json:"package_json,omitempty"`
}

// updatePackageRequest is the request body for PUT /api/npm/packages/{id}.
// Pointer fields distinguish "not provided" from zero values.
type updatePackageRequest struct {
	Version     *string         `json:"version,omitempty"`
	Description *string         `json:"description,omitempty"`
	IsPrivate   *bool           `json:"is_private,omitempty"`
	PackageJSON *map[string]any `json:"package_json,omitempty"`
}

// packageResponse is the API representation of a package record.
type packageResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description *string        `json:"description"`
	IsPrivate   bool           `json:"is_private"`
	PackageJSON map[string]any `json:"package_json"`
	OwnerID     int64          `json:"owner_id"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   *string        `json:"updated_at"`
}

// toPackageResponse converts a package model to its API response representation.
func toPackageResponse(p *npmpkg.Package) packageResponse {
	resp := packageResponse{
		ID:          p.ID,
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		IsPrivate:   p.IsPrivate,
		PackageJSON: p.PackageJSON,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.UpdatedAt != nil {
		updated := p.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	return resp
}

// PackageHandler handles npm package record CRUD endpoints.
type PackageHandler struct {
	repo npmpkg.Repository
}

// NewPackageHandler creates a new PackageHandler.
func NewPackageHandler(repo npmpkg.Repository) *PackageHandler {
	return &PackageHandler{repo: repo}
}

// Create handles POST /api/npm/packages. Rejects with 409 when the caller
// already has a record with the same name and version.
func (h *PackageHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req createPackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Version = strings.TrimSpace(req.Version)

	fieldErrors := validation.ValidateCreatePackageRequest(validation.CreatePackageRequest{
		Name:    req.Name,
		Version: req.Version,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	isPrivate := false
	if req.IsPrivate != nil {
		isPrivate = *req.IsPrivate
	}

	pkg := &npmpkg.Package{
		Name:        req.Name,
		Version:     req.Version,
		Description: req.Description,
		IsPrivate:   isPrivate,
		PackageJSON: req.PackageJSON,
		OwnerID:     identity.UserID,
	}

	if err := h.repo.Create(r.Context(), pkg); err != nil {
		if errors.Is(err, npmpkg.ErrDuplicatePackage) {
			response.Err(w, http.StatusConflict, "DUPLICATE_PACKAGE", "Package already exists", requestID)
			return
		}
		slog.Error("failed to create package record", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create package", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toPackageResponse(pkg), requestID)
}

// List handles GET /api/npm/packages. Restricted to the caller's own
// packages; name filters as a contains match.
func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	var filter npmpkg.ListFilter
	if v := r.URL.Query().Get("name"); v != "" {
		filter.Name = &v
	}
	if v := r.URL.Query().Get("is_private"); v != "" {
		private, err := strconv.ParseBool(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_PARAM", "is_private must be true or false", requestID)
			return
		}
		filter.IsPrivate = &private
	}

	packages, err := h.repo.ListByOwner(r.Context(), identity.UserID, filter)
	if err != nil {
		slog.Error("failed to list packages", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list packages", requestID)
		return
	}

	items := make([]packageResponse, 0, len(packages))
	for i := range packages {
		items = append(items, toPackageResponse(&packages[i]))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// getAuthorized loads a package by path id and applies the owner-or-admin
// check. Writes the error response and returns nil when access is denied or
// the package does not exist. Missing packages return 404 before the 403
// ownership check.
func (h *PackageHandler) getAuthorized(w http.ResponseWriter, r *http.Request, requestID string) *npmpkg.Package {
	identity := middleware.GetIdentity(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer", requestID)
		return nil
	}

	pkg, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, npmpkg.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Package not found", requestID)
			return nil
		}
		slog.Error("failed to get package", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get package", requestID)
		return nil
	}

	if !identity.CanAccess(pkg.OwnerID) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not authorized to access this package", requestID)
		return nil
	}

	return pkg
}

// GetByID handles GET /api/npm/packages/{id}.
func (h *PackageHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	pkg := h.getAuthorized(w, r, requestID)
	if pkg == nil {
		return
	}

	response.Success(w, http.StatusOK, toPackageResponse(pkg), requestID)
}

// Update handles PUT /api/npm/packages/{id}. Only fields present in the
// payload are applied.
func (h *PackageHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	pkg := h.getAuthorized(w, r, requestID)
	if pkg == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req updatePackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	updated, err := h.repo.Update(r.Context(), pkg.ID, npmpkg.UpdateFields{
		Version:     req.Version,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		PackageJSON: req.PackageJSON,
	})
	if err != nil {
		if errors.Is(err, npmpkg.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Package not found", requestID)
			return
		}
		slog.Error("failed to update package", "error", err, "id", pkg.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update package", requestID)
		return
	}

	response.Success(w, http.StatusOK, toPackageResponse(updated), requestID)
}

// Delete handles DELETE /api/npm/packages/{id}. Hard delete.
func (h *PackageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	pkg := h.getAuthorized(w, r, requestID)
	if pkg == nil {
		return
	}

	if err := h.repo.Delete(r.Context(), pkg.ID); err != nil {
		if errors.Is(err, npmpkg.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Package not found", requestID)
			return
		}
		slog.Error("failed to delete package", "error", err, "id", pkg.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete package", requestID)
		return
	}

	response.NoContent(w)
}
