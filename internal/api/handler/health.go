package handler

import (
	"context"
	"net/http"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/middleware"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/response"
)

// DBPinger checks database connectivity for the health endpoint.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the unauthenticated liveness endpoints.
type HealthHandler struct {
	db      DBPinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

type rootData struct {
	Message string `json:"message"`
}

type healthData struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// Root handles GET /.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	response.Success(w, http.StatusOK, rootData{Message: "Welcome to MCP Key Server"}, requestID)
}

// Health handles GET /health. Reports degraded when the database is
// unreachable; the endpoint itself still answers 200.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"
	dbStatus := "connected"
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	response.Success(w, http.StatusOK, healthData{
		Status:   status,
		Version:  h.version,
		Database: dbStatus,
	}, requestID)
}
