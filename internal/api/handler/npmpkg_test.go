package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/handler"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/npmpkg"
)

// --- Mock Repository ---

type mockPackageRepo struct {
	createFn      func(ctx context.Context, pkg *npmpkg.Package) error
	getByIDFn     func(ctx context.Context, id int64) (*npmpkg.Package, error)
	listByOwnerFn func(ctx context.Context, ownerID int64, filter npmpkg.ListFilter) ([]npmpkg.Package, error)
	updateFn      func(ctx context.Context, id int64, fields npmpkg.UpdateFields) (*npmpkg.Package, error)
	deleteFn      func(ctx context.Context, id int64) error
}

func (m *mockPackageRepo) Create(ctx context.Context, pkg *npmpkg.Package) error {
	if m.createFn != nil {
		return m.createFn(ctx, pkg)
	}
	pkg.ID = 1
	pkg.CreatedAt = time.Now()
	return nil
}

func (m *mockPackageRepo) GetByID(ctx context.Context, id int64) (*npmpkg.Package, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, npmpkg.ErrNotFound
}

func (m *mockPackageRepo) ListByOwner(ctx context.Context, ownerID int64, filter npmpkg.ListFilter) ([]npmpkg.Package, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID, filter)
	}
	return []npmpkg.Package{}, nil
}

func (m *mockPackageRepo) Update(ctx context.Context, id int64, fields npmpkg.UpdateFields) (*npmpkg.Package, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, npmpkg.ErrNotFound
}

func (m *mockPackageRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return npmpkg.ErrNotFound
}

func samplePackage(id, ownerID int64) *npmpkg.Package {
	return &npmpkg.Package{
		ID:        id,
		Name:      "express",
		Version:   "4.18.2",
		OwnerID:   ownerID,
		CreatedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

// --- Create ---

func TestPackageCreate_DefaultsToPublic(t *testing.T) {
	t.Parallel()

	var created *npmpkg.Package
	repo := &mockPackageRepo{
		createFn: func(_ context.Context, pkg *npmpkg.Package) error {
			pkg.ID = 3
			pkg.CreatedAt = time.Now()
			created = pkg
			return nil
		},
	}
	h := handler.NewPackageHandler(repo)

	req := jsonRequest(t, http.MethodPost, "/api/npm/packages/", map[string]any{
		"name":    "express",
		"version": "4.18.2",
	})
	w := httptest.NewRecorder()
	h.Create(w, asUser(req, 42))

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, created)
	assert.Equal(t, int64(42), created.OwnerID)
	assert.False(t, created.IsPrivate, "is_private should default to false")
}

func TestPackageCreate_Duplicate(t *testing.T) {
	t.Parallel()

	repo := &mockPackageRepo{
		createFn: func(context.Context, *npmpkg.Package) error {
			return npmpkg.ErrDuplicatePackage
		},
	}
	h := handler.NewPackageHandler(repo)

	req := jsonRequest(t, http.MethodPost, "/api/npm/packages/", map[string]any{
		"name":    "express",
		"version": "4.18.2",
	})
	w := httptest.NewRecorder()
	h.Create(w, asUser(req, 42))

	assert.Equal(t, http.StatusConflict, w.Code)
	env := parseEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DUPLICATE_PACKAGE", env.Error.Code)
}

func TestPackageCreate_MissingVersion(t *testing.T) {
	t.Parallel()

	h := handler.NewPackageHandler(&mockPackageRepo{
		createFn: func(context.Context, *npmpkg.Package) error {
			t.Fatal("repo should not be called")
			return nil
		},
	})

	req := jsonRequest(t, http.MethodPost, "/api/npm/packages/", map[string]any{
		"name": "express",
	})
	w := httptest.NewRecorder()
	h.Create(w, asUser(req, 42))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := parseEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

// --- List ---

func TestPackageList_NameAndPrivacyFilters(t *testing.T) {
	t.Parallel()

	var gotOwner int64
	var gotFilter npmpkg.ListFilter
	repo := &mockPackageRepo{
		listByOwnerFn: func(_ context.Context, ownerID int64, filter npmpkg.ListFilter) ([]npmpkg.Package, error) {
			gotOwner = ownerID
			gotFilter = filter
			return []npmpkg.Package{*samplePackage(1, ownerID)}, nil
		},
	}
	h := handler.NewPackageHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/npm/packages/?name=exp&is_private=false", nil)
	w := httptest.NewRecorder()
	h.List(w, asUser(req, 42))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), gotOwner)
	require.NotNil(t, gotFilter.Name)
	assert.Equal(t, "exp", *gotFilter.Name)
	require.NotNil(t, gotFilter.IsPrivate)
	assert.False(t, *gotFilter.IsPrivate)
}

// --- Ownership ---

func TestPackageGetByID_MissingBeats403(t *testing.T) {
	t.Parallel()

	h := handler.NewPackageHandler(&mockPackageRepo{})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/npm/packages/9", nil), "id", "9")
	w := httptest.NewRecorder()
	h.GetByID(w, asUser(req, 42))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPackageGetByID_OtherOwnerForbidden(t *testing.T) {
	t.Parallel()

	repo := &mockPackageRepo{
		getByIDFn: func(_ context.Context, id int64) (*npmpkg.Package, error) {
			return samplePackage(id, 99), nil
		},
	}
	h := handler.NewPackageHandler(repo)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/npm/packages/9", nil), "id", "9")
	w := httptest.NewRecorder()
	h.GetByID(w, asUser(req, 42))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// --- Update / Delete ---

func TestPackageUpdate_PartialFields(t *testing.T) {
	t.Parallel()

	var gotFields npmpkg.UpdateFields
	repo := &mockPackageRepo{
		getByIDFn: func(_ context.Context, id int64) (*npmpkg.Package, error) {
			return samplePackage(id, 42), nil
		},
		updateFn: func(_ context.Context, id int64, fields npmpkg.UpdateFields) (*npmpkg.Package, error) {
			gotFields = fields
			pkg := samplePackage(id, 42)
			pkg.Version = "5.0.0"
			return pkg, nil
		},
	}
	h := handler.NewPackageHandler(repo)

	req := jsonRequest(t, http.MethodPut, "/api/npm/packages/9", map[string]any{"version": "5.0.0"})
	req = withURLParam(req, "id", "9")
	w := httptest.NewRecorder()
	h.Update(w, asUser(req, 42))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotFields.Version)
	assert.Equal(t, "5.0.0", *gotFields.Version)
	assert.Nil(t, gotFields.Description)
	assert.Nil(t, gotFields.IsPrivate)

	var data map[string]any
	decodeData(t, parseEnvelope(t, w), &data)
	assert.Equal(t, "5.0.0", data["version"])
}

func TestPackageDelete_AdminDeletesAny(t *testing.T) {
	t.Parallel()

	deleted := false
	repo := &mockPackageRepo{
		getByIDFn: func(_ context.Context, id int64) (*npmpkg.Package, error) {
			return samplePackage(id, 99), nil
		},
		deleteFn: func(context.Context, int64) error {
			deleted = true
			return nil
		},
	}
	h := handler.NewPackageHandler(repo)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/npm/packages/9", nil), "id", "9")
	w := httptest.NewRecorder()
	h.Delete(w, asAdmin(req, 1))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, deleted)
}
