package apikey

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// allColumns is the ordered list of columns scanned from the api_keys table.
const allColumns = `id, name, key, service, description, is_active, metadata, owner_id, created_at, updated_at`

// scanKey scans a single APIKey from a row.
func scanKey(row pgx.Row) (*APIKey, error) {
	var k APIKey
	err := row.Scan(
		&k.ID, &k.Name, &k.Key, &k.Service, &k.Description,
		&k.IsActive, &k.Metadata, &k.OwnerID, &k.CreatedAt, &k.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning api key row: %w", err)
	}
	return &k, nil
}

// Create inserts a new API key record. No uniqueness is enforced.
func (r *PostgresRepository) Create(ctx context.Context, key *APIKey) error {
	query := fmt.Sprintf(`
		INSERT INTO api_keys (name, key, service, description, is_active, metadata, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, allColumns)

	row := r.pool.QueryRow(ctx, query,
		key.Name, key.Key, key.Service, key.Description,
		key.IsActive, key.Metadata, key.OwnerID,
	)

	created, err := scanKey(row)
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}

	*key = *created
	return nil
}

// GetByID retrieves a single API key by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_keys WHERE id = $1`, allColumns)
	return scanKey(r.pool.QueryRow(ctx, query, id))
}

// filterClauses builds WHERE conditions for the optional equality filters.
func filterClauses(filter ListFilter, args []any, argIdx int) ([]string, []any, int) {
	var conditions []string

	if filter.Service != nil {
		conditions = append(conditions, fmt.Sprintf("service = $%d", argIdx))
		args = append(args, *filter.Service)
		argIdx++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *filter.IsActive)
		argIdx++
	}

	return conditions, args, argIdx
}

// ListByOwner retrieves the given owner's keys, filtered.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64, filter ListFilter) ([]APIKey, error) {
	conditions := []string{"owner_id = $1"}
	args := []any{ownerID}

	extra, args, _ := filterClauses(filter, args, 2)
	conditions = append(conditions, extra...)

	query := fmt.Sprintf(`
		SELECT %s FROM api_keys
		WHERE %s
		ORDER BY id ASC`, allColumns, strings.Join(conditions, " AND "))

	return r.queryKeys(ctx, query, args)
}

// ListAll retrieves keys across all owners with skip/limit pagination.
// Admin-only; authorization is enforced above the repository.
func (r *PostgresRepository) ListAll(ctx context.Context, filter AdminListFilter) ([]APIKey, error) {
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}

	conditions, args, argIdx := filterClauses(filter.ListFilter, nil, 1)

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM api_keys
		%s
		ORDER BY id ASC
		LIMIT $%d OFFSET $%d`, allColumns, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, filter.Skip)

	return r.queryKeys(ctx, query, args)
}

// Update modifies the provided fields on an API key record.
func (r *PostgresRepository) Update(ctx context.Context, id int64, fields UpdateFields) (*APIKey, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.Key != nil {
		setClauses = append(setClauses, fmt.Sprintf("key = $%d", argIdx))
		args = append(args, *fields.Key)
		argIdx++
	}
	if fields.Service != nil {
		setClauses = append(setClauses, fmt.Sprintf("service = $%d", argIdx))
		args = append(args, *fields.Service)
		argIdx++
	}
	if fields.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *fields.Description)
		argIdx++
	}
	if fields.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *fields.IsActive)
		argIdx++
	}
	if fields.Metadata != nil {
		setClauses = append(setClauses, fmt.Sprintf("metadata = $%d", argIdx))
		args = append(args, *fields.Metadata)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE api_keys
		SET %s
		WHERE id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, allColumns)

	return scanKey(r.pool.QueryRow(ctx, query, args...))
}

// Delete removes an API key record. Hard delete.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// queryKeys runs a multi-row query and scans the results.
func (r *PostgresRepository) queryKeys(ctx context.Context, query string, args []any) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		err := rows.Scan(
			&k.ID, &k.Name, &k.Key, &k.Service, &k.Description,
			&k.IsActive, &k.Metadata, &k.OwnerID, &k.CreatedAt, &k.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning api key row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api key rows: %w", err)
	}

	if keys == nil {
		keys = []APIKey{}
	}

	return keys, nil
}
