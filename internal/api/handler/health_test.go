package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/handler"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

func TestRoot(t *testing.T) {
	t.Parallel()

	h := handler.NewHealthHandler(&mockPinger{}, "0.1.0")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.Root(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]any
	decodeData(t, parseEnvelope(t, w), &data)
	assert.Equal(t, "Welcome to MCP Key Server", data["message"])
}

func TestHealth_Connected(t *testing.T) {
	t.Parallel()

	h := handler.NewHealthHandler(&mockPinger{}, "0.1.0")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]any
	decodeData(t, parseEnvelope(t, w), &data)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "connected", data["database"])
	assert.Equal(t, "0.1.0", data["version"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	t.Parallel()

	h := handler.NewHealthHandler(&mockPinger{err: errors.New("connection refused")}, "0.1.0")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	// The endpoint itself stays 200; degradation is reported in the body.
	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]any
	decodeData(t, parseEnvelope(t, w), &data)
	assert.Equal(t, "degraded", data["status"])
	assert.Equal(t, "unreachable", data["database"])
}
