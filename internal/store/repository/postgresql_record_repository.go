// Package repository implements data persistence for record storage.
// Repositories support both PostgreSQL and MySQL with upsert semantics keyed
// on kind and path.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/kvcrypt/internal/database"
	apperrors "github.com/allisson/kvcrypt/internal/errors"
	storeDomain "github.com/allisson/kvcrypt/internal/store/domain"
)

// PostgreSQLRecordRepository implements Record persistence for PostgreSQL databases.
type PostgreSQLRecordRepository struct {
	db *sql.DB
}

// Upsert inserts a record or replaces the value of an existing one.
func (p *PostgreSQLRecordRepository) Upsert(ctx context.Context, record *storeDomain.Record) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO records (id, kind, path, value, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (kind, path)
			  DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.Kind,
		record.Path,
		record.Value,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert record")
	}
	return nil
}

// GetByPath retrieves a record by its kind and path.
func (p *PostgreSQLRecordRepository) GetByPath(
	ctx context.Context,
	kind, path string,
) (*storeDomain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, kind, path, value, created_at, updated_at
			  FROM records
			  WHERE kind = $1 AND path = $2
			  LIMIT 1`

	var record storeDomain.Record
	err := querier.QueryRowContext(ctx, query, kind, path).Scan(
		&record.ID,
		&record.Kind,
		&record.Path,
		&record.Value,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, storeDomain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get record by path")
	}

	return &record, nil
}

// ListPaths returns record paths of a kind ordered by path with pagination.
func (p *PostgreSQLRecordRepository) ListPaths(
	ctx context.Context,
	kind string,
	offset, limit int,
) ([]string, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT path
			  FROM records
			  WHERE kind = $1
			  ORDER BY path
			  OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, kind, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list record paths")
	}
	defer func() { _ = rows.Close() }()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan record path")
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate record paths")
	}

	return paths, nil
}

// Delete removes a record by its kind and path.
func (p *PostgreSQLRecordRepository) Delete(ctx context.Context, kind, path string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM records WHERE kind = $1 AND path = $2`

	result, err := querier.ExecContext(ctx, query, kind, path)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete record")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return storeDomain.ErrRecordNotFound
	}

	return nil
}

// NewPostgreSQLRecordRepository creates a new PostgreSQL Record repository instance.
func NewPostgreSQLRecordRepository(db *sql.DB) *PostgreSQLRecordRepository {
	return &PostgreSQLRecordRepository{db: db}
}
