package database

import (
	"context"
	"fmt"
)

// schema is applied on startup. Statements are idempotent so repeated boots
// against the same database are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		email VARCHAR(100) NOT NULL UNIQUE,
		hashed_password VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		key VARCHAR(255) NOT NULL,
		service VARCHAR(100) NOT NULL,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		metadata JSONB,
		owner_id BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_service ON api_keys (service)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_owner ON api_keys (owner_id)`,
	`CREATE TABLE IF NOT EXISTS npm_packages (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		version VARCHAR(50) NOT NULL,
		description TEXT,
		is_private BOOLEAN NOT NULL DEFAULT FALSE,
		package_json JSONB,
		owner_id BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_npm_packages_name ON npm_packages (name)`,
	`CREATE INDEX IF NOT EXISTS idx_npm_packages_owner ON npm_packages (owner_id)`,
}

// Migrate applies the schema to the connected database.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
