package auth

import "time"

// User represents a row in the users table. HashedPassword never leaves the
// server; API representations are built from the other fields only.
type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
	IsActive       bool
	IsAdmin        bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// CanAccess reports whether the identity may act on a resource owned by
// ownerID: the owner-or-admin rule applied by every key and package endpoint.
func (i *Identity) CanAccess(ownerID int64) bool {
	return i.UserID == ownerID || i.IsAdmin
}

// UpdateFields holds user-updatable columns. Nil fields are not updated.
type UpdateFields struct {
	Username       *string
	Email          *string
	HashedPassword *string
	IsActive       *bool
	IsAdmin        *bool
}

// ProfileUpdate is the service-level partial update. Password carries the
// plaintext; the service hashes it before it reaches the repository.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
	IsActive *bool
	IsAdmin  *bool
}
