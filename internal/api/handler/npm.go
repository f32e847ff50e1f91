package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/middleware"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/response"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/validation"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/installer"
)

// installRequest is the payload for POST /api/npm/install, read from query
// parameters or a JSON body.
type installRequest struct {
	PackageName string `json:"package_name"`
	Version     string `json:"version,omitempty"`
}

// installResponse acknowledges an install request. For background installs
// the message reports acceptance, not completion; there is no handle to poll.
type installResponse struct {
	Message string `json:"message"`
}

// PackageInstaller is the subset of the installer the handler depends on.
type PackageInstaller interface {
	Install(ctx context.Context, name, version string) error
	Dispatch(name, version string)
	ListInstalled() ([]installer.InstalledPackage, error)
}

// NpmHandler handles the package install and installed-list endpoints.
type NpmHandler struct {
	installer PackageInstaller
	sync      bool
}

// NewNpmHandler creates a new NpmHandler. When sync is true installs run in
// the request and surface failures; otherwise they are dispatched as
// fire-and-forget background tasks.
func NewNpmHandler(inst PackageInstaller, sync bool) *NpmHandler {
	return &NpmHandler{installer: inst, sync: sync}
}

// Install handles POST /api/npm/install. Returns 202 when the install is
// dispatched in the background, 200/500 for the synchronous outcome.
func (h *NpmHandler) Install(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	// The package can be named via query parameters or a JSON body.
	// Query parameters win when both are present.
	req := installRequest{
		PackageName: r.URL.Query().Get("package_name"),
		Version:     r.URL.Query().Get("version"),
	}
	if req.PackageName == "" {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
			return
		}
	}

	req.PackageName = strings.TrimSpace(req.PackageName)
	req.Version = strings.TrimSpace(req.Version)

	fieldErrors := validation.ValidateInstallRequest(req.PackageName, req.Version)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if !h.sync {
		h.installer.Dispatch(req.PackageName, req.Version)
		response.Success(w, http.StatusAccepted, installResponse{
			Message: fmt.Sprintf("Installation of %s started in the background", req.PackageName),
		}, requestID)
		return
	}

	if err := h.installer.Install(r.Context(), req.PackageName, req.Version); err != nil {
		if errors.Is(err, installer.ErrInstallFailed) {
			// The captured subprocess stderr is deliberately passed through.
			response.Err(w, http.StatusInternalServerError, "INSTALL_FAILED",
				fmt.Sprintf("Failed to install package: %v", err), requestID)
			return
		}
		slog.Error("failed to run package install", "error", err, "package", req.PackageName)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to install package", requestID)
		return
	}

	response.Success(w, http.StatusOK, installResponse{
		Message: fmt.Sprintf("Successfully installed %s", req.PackageName),
	}, requestID)
}

// ListInstalled handles GET /api/npm/installed. An empty or missing cache
// directory yields an empty list.
func (h *NpmHandler) ListInstalled(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	installed, err := h.installer.ListInstalled()
	if err != nil {
		slog.Error("failed to read installed package manifest", "error", err)
		response.Err(w, http.StatusInternalServerError, "MANIFEST_READ_ERROR", "Failed to read package manifest", requestID)
		return
	}

	response.Success(w, http.StatusOK, installed, requestID)
}
