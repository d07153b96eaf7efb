package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/kvcrypt/internal/database"
	apperrors "github.com/allisson/kvcrypt/internal/errors"
	storeDomain "github.com/allisson/kvcrypt/internal/store/domain"
)

// MySQLRecordRepository implements Record persistence for MySQL databases.
type MySQLRecordRepository struct {
	db *sql.DB
}

// Upsert inserts a record or replaces the value of an existing one.
func (m *MySQLRecordRepository) Upsert(ctx context.Context, record *storeDomain.Record) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO records (id, kind, path, value, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal record id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLRecordRepository) GetByPath(
	ctx context.Context,
	kind, path string,
) (*storeDomain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, kind, path, value, created_at, updated_at
			  FROM records
			  WHERE kind = ? AND path = ?
			  LIMIT 1`

	var record storeDomain.Record
	var id []byte
	err := querier.QueryRowContext(ctx, query, kind, path).Scan(
		&id,
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

	if err := record.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal record id")
	}

	return &record, nil
}

// ListPaths returns record paths of a kind ordered by path with pagination.
func (m *MySQLRecordRepository) ListPaths(
	ctx context.Context,
	kind string,
	offset, limit int,
) ([]string, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT path
			  FROM records
			  WHERE kind = ?
			  ORDER BY path
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, kind, limit, offset)
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
func (m *MySQLRecordRepository) Delete(ctx context.Context, kind, path string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM records WHERE kind = ? AND path = ?`

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

// NewMySQLRecordRepository creates a new MySQL Record repository instance.
func NewMySQLRecordRepository(db *sql.DB) *MySQLRecordRepository {
	return &MySQLRecordRepository{db: db}
}
