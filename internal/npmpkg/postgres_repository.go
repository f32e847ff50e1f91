package npmpkg

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

// allColumns is the ordered list of columns scanned from the npm_packages table.
const allColumns = `id, name, version, description, is_private, package_json, owner_id, created_at, updated_at`

// scanPackage scans a single Package from a row.
func scanPackage(row pgx.Row) (*Package, error) {
	var p Package
	err := row.Scan(
		&p.ID, &p.Name, &p.Version, &p.Description, &p.IsPrivate,
		&p.PackageJSON, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning package row: %w", err)
	}
	return &p, nil
}

// Create inserts a new package record. Returns ErrDuplicatePackage when the
// owner already has a record with the same name and version. The check is a
// query rather than a constraint, matching the table schema.
func (r *PostgresRepository) Create(ctx context.Context, pkg *Package) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM npm_packages WHERE name = $1 AND version = $2 AND owner_id = $3)`,
		pkg.Name, pkg.Version, pkg.OwnerID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking for duplicate package: %w", err)
	}
	if exists {
		return ErrDuplicatePackage
	}

	query := fmt.Sprintf(`
		INSERT INTO npm_packages (name, version, description, is_private, package_json, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, allColumns)

	row := r.pool.QueryRow(ctx, query,
		pkg.Name, pkg.Version, pkg.Description, pkg.IsPrivate,
		pkg.PackageJSON, pkg.OwnerID,
	)

	created, err := scanPackage(row)
	if err != nil {
		return fmt.Errorf("inserting package: %w", err)
	}

	*pkg = *created
	return nil
}

// GetByID retrieves a single package by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Package, error) {
	query := fmt.Sprintf(`SELECT %s FROM npm_packages WHERE id = $1`, allColumns)
	return scanPackage(r.pool.QueryRow(ctx, query, id))
}

// ListByOwner retrieves the given owner's packages, filtered.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64, filter ListFilter) ([]Package, error) {
	conditions := []string{"owner_id = $1"}
	args := []any{ownerID}
	argIdx := 2

	if filter.Name != nil {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.Name+"%")
		argIdx++
	}
	if filter.IsPrivate != nil {
		conditions = append(conditions, fmt.Sprintf("is_private = $%d", argIdx))
		args = append(args, *filter.IsPrivate)
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT %s FROM npm_packages
		WHERE %s
		ORDER BY id ASC`, allColumns, strings.Join(conditions, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	defer rows.Close()

	var packages []Package
	for rows.Next() {
		var p Package
		err := rows.Scan(
			&p.ID, &p.Name, &p.Version, &p.Description, &p.IsPrivate,
			&p.PackageJSON, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning package row: %w", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating package rows: %w", err)
	}

	if packages == nil {
		packages = []Package{}
	}

	return packages, nil
}

// Update modifies the provided fields on a package record.
func (r *PostgresRepository) Update(ctx context.Context, id int64, fields UpdateFields) (*Package, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Version != nil {
		setClauses = append(setClauses, fmt.Sprintf("version = $%d", argIdx))
		args = append(args, *fields.Version)
		argIdx++
	}
	if fields.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *fields.Description)
		argIdx++
	}
	if fields.IsPrivate != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_private = $%d", argIdx))
		args = append(args, *fields.IsPrivate)
		argIdx++
	}
	if fields.PackageJSON != nil {
		setClauses = append(setClauses, fmt.Sprintf("package_json = $%d", argIdx))
		args = append(args, *fields.PackageJSON)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE npm_packages
		SET %s
		WHERE id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, allColumns)

	return scanPackage(r.pool.QueryRow(ctx, query, args...))
}

// Delete removes a package record. Hard delete.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM npm_packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting package: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
