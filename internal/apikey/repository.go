package apikey

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an API key record is not found.
var ErrNotFound = errors.New("API key not found")

// Repository provides CRUD operations on the api_keys table.
type Repository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByID(ctx context.Context, id int64) (*APIKey, error)
	ListByOwner(ctx context.Context, ownerID int64, filter ListFilter) ([]APIKey, error)
	ListAll(ctx context.Context, filter AdminListFilter) ([]APIKey, error)
	Update(ctx context.Context, id int64, fields UpdateFields) (*APIKey, error)
	Delete(ctx context.Context, id int64) error
}
