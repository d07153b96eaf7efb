// Package usecase defines the interfaces and implementations for record
// storage use cases. Use cases run every read and write through the transform
// layer so that encrypted kinds never reach the database as plaintext.
package usecase

import (
	"context"

	storeDomain "github.com/allisson/kvcrypt/internal/store/domain"
)

// RecordRepository defines the interface for Record persistence operations.
type RecordRepository interface {
	Upsert(ctx context.Context, record *storeDomain.Record) error
	GetByPath(ctx context.Context, kind, path string) (*storeDomain.Record, error)
	ListPaths(ctx context.Context, kind string, offset, limit int) ([]string, error)
	Delete(ctx context.Context, kind, path string) error
}

// RecordUseCase defines the interface for record storage business logic.
type RecordUseCase interface {
	// Put encrypts the value through the kind's transformer and upserts the record.
	Put(ctx context.Context, kind, path string, value []byte) (*storeDomain.Record, error)
	// Get retrieves a record and returns its plaintext value. The stale flag
	// reports whether the stored envelope was written under a key or provider
	// that is no longer active.
	Get(ctx context.Context, kind, path string) ([]byte, bool, error)
	// Delete removes a record by kind and path.
	Delete(ctx context.Context, kind, path string) error
	// ListPaths returns record paths of a kind ordered by path with pagination.
	ListPaths(ctx context.Context, kind string, offset, limit int) ([]string, error)
	// RewriteStale re-encrypts every stale record of a kind under the active
	// provider and key. Records that are already fresh are left untouched.
	RewriteStale(ctx context.Context, kind string) (*storeDomain.RewriteReport, error)
}
