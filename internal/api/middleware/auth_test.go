package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/middleware"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/auth"
)

const testSecret = "test-secret-key-for-signing"

// --- Mock User Repository ---

type mockUserRepo struct {
	getByIDFn func(ctx context.Context, id int64) (*auth.User, error)
}

func (m *mockUserRepo) Create(context.Context, *auth.User) error { return nil }

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) GetByUsername(context.Context, string) (*auth.User, error) {
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) List(context.Context, int, int) ([]auth.User, error) {
	return []auth.User{}, nil
}

func (m *mockUserRepo) Update(context.Context, int64, auth.UpdateFields) (*auth.User, error) {
	return nil, auth.ErrUserNotFound
}

// --- Helpers ---

func newAuthService(t *testing.T, repo auth.UserRepository, expiry time.Duration) *auth.Service {
	t.Helper()
	tokens, err := auth.NewTokenManager(testSecret, "HS256", expiry)
	require.NoError(t, err)
	return auth.NewService(repo, tokens, 4)
}

func activeUserRepo(user *auth.User) *mockUserRepo {
	return &mockUserRepo{
		getByIDFn: func(_ context.Context, id int64) (*auth.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, auth.ErrUserNotFound
		},
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	errObj, ok := env["error"].(map[string]any)
	require.True(t, ok, "response should carry an error object")
	return errObj["code"].(string)
}

// identityCapture is a terminal handler that records the resolved identity.
func identityCapture(captured **auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = middleware.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// --- Auth middleware ---

func TestAuth_MissingHeader(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t, &mockUserRepo{}, 30*time.Minute)
	handler := middleware.Auth(svc)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/keys/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestAuth_NonBearerHeader(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t, &mockUserRepo{}, 30*time.Minute)
	handler := middleware.Auth(svc)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/keys/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	t.Parallel()

	user := &auth.User{ID: 5, Username: "alice", IsActive: true}
	svc := newAuthService(t, activeUserRepo(user), 30*time.Minute)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	var captured *auth.Identity
	handler := middleware.Auth(svc)(identityCapture(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/keys/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, int64(5), captured.UserID)
	assert.Equal(t, "alice", captured.Username)
	assert.False(t, captured.IsAdmin)
}

func TestAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	user := &auth.User{ID: 5, Username: "alice", IsActive: true}
	svc := newAuthService(t, activeUserRepo(user), -time.Minute)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	handler := middleware.Auth(svc)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/keys/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, w))
}

func TestAuth_InactiveUser(t *testing.T) {
	t.Parallel()

	user := &auth.User{ID: 5, Username: "alice", IsActive: false}
	svc := newAuthService(t, activeUserRepo(user), 30*time.Minute)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	handler := middleware.Auth(svc)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/keys/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INACTIVE_USER", errorCode(t, w))
}

func TestAuth_DeletedUser(t *testing.T) {
	t.Parallel()

	// Token is valid but the user row is gone.
	svc := newAuthService(t, &mockUserRepo{}, 30*time.Minute)

	token, err := svc.IssueToken(&auth.User{ID: 5, Username: "alice"})
	require.NoError(t, err)

	handler := middleware.Auth(svc)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/keys/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- RequireAdmin middleware ---

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/keys/admin", nil)
	ctx := middleware.WithIdentity(req.Context(), &auth.Identity{UserID: 1, Username: "root", IsAdmin: true})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_RejectsNonAdmin(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireAdmin()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/keys/admin", nil)
	ctx := middleware.WithIdentity(req.Context(), &auth.Identity{UserID: 2, Username: "alice"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req.WithContext(ctx))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestRequireAdmin_RejectsMissingIdentity(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireAdmin()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/keys/admin", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
