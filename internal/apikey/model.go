package apikey

import "time"

// APIKey represents a row in the api_keys table. The key value is stored and
// returned in plaintext so owners can retrieve it for reuse.
type APIKey struct {
	ID          int64
	Name        string
	Key         string
	Service     string
	Description *string
	IsActive    bool
	Metadata    map[string]any
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ListFilter holds optional equality filters for listing keys. Filters are
// AND-combined.
type ListFilter struct {
	Service  *string
	IsActive *bool
}

// AdminListFilter extends ListFilter with skip/limit pagination for the
// cross-owner admin listing.
type AdminListFilter struct {
	ListFilter
	Skip  int
	Limit int // default 100
}

// UpdateFields holds user-updatable columns. Nil fields are not updated.
type UpdateFields struct {
	Name        *string
	Key         *string
	Service     *string
	Description *string
	IsActive    *bool
	Metadata    *map[string]any
}
