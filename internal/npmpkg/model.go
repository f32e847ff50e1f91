package npmpkg

import "time"

// Package represents a row in the npm_packages table: metadata about a
// package a user has registered, independent of what is physically installed.
type Package struct {
	ID          int64
	Name        string
	Version     string
	Description *string
	IsPrivate   bool
	PackageJSON map[string]any
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ListFilter holds optional filters for listing packages. Name matches as a
// case-insensitive substring; IsPrivate is an equality filter.
type ListFilter struct {
	Name      *string
	IsPrivate *bool
}

// UpdateFields holds user-updatable columns. Nil fields are not updated.
// Name is immutable after creation, matching the create-time uniqueness check.
type UpdateFields struct {
	Version     *string
	Description *string
	IsPrivate   *bool
	PackageJSON *map[string]any
}
