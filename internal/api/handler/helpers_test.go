package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/middleware"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/auth"
)

// envelope mirrors the response wrapper for assertions.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details,omitempty"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"requestId"`
		Timestamp string `json:"timestamp"`
	} `json:"meta"`
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// decodeData unmarshals the envelope's data payload into out.
func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	require.NotNil(t, env.Data)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

// jsonRequest builds a request with the given body marshaled as JSON. A nil
// body produces an empty-body request.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, target, nil)
	}
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asIdentity attaches an authenticated identity to the request context, the
// way the auth middleware would.
func asIdentity(r *http.Request, identity *auth.Identity) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), identity))
}

func asUser(r *http.Request, userID int64) *http.Request {
	return asIdentity(r, &auth.Identity{UserID: userID, Username: "user", IsAdmin: false})
}

func asAdmin(r *http.Request, userID int64) *http.Request {
	return asIdentity(r, &auth.Identity{UserID: userID, Username: "admin", IsAdmin: true})
}

// withURLParam injects a chi route parameter, as the router would when
// matching a path pattern.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
