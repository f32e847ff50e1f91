package npmpkg

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a package record is not found.
var ErrNotFound = errors.New("package not found")

// ErrDuplicatePackage is returned when a (name, version) pair already exists
// for the same owner.
var ErrDuplicatePackage = errors.New("package already exists")

// Repository provides CRUD operations on the npm_packages table.
type Repository interface {
	Create(ctx context.Context, pkg *Package) error
	GetByID(ctx context.Context, id int64) (*Package, error)
	ListByOwner(ctx context.Context, ownerID int64, filter ListFilter) ([]Package, error)
	Update(ctx context.Context, id int64, fields UpdateFields) (*Package, error)
	Delete(ctx context.Context, id int64) error
}
