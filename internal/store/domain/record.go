// Package domain defines the core domain models for encrypted record storage.
// Records are opaque values stored under a kind and path. Values of encrypted
// kinds are persisted as envelopes; the rest are stored as written.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record represents a stored value identified by kind and path.
type Record struct {
	// ID is the unique identifier for this record.
	ID uuid.UUID
	// Kind groups records of the same resource type (e.g., "secrets").
	Kind string
	// Path is the logical key within the kind (e.g., "/ns/name").
	Path string
	// Value holds the bytes as persisted. For encrypted kinds this is the
	// envelope, not the plaintext.
	Value []byte
	// CreatedAt is the UTC timestamp when this record was first written.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last write.
	UpdatedAt time.Time
}

// StorageKey returns the full storage path of the record. It is the input the
// encryption context is derived from, so it must be stable across reads and
// writes of the same record.
func (r *Record) StorageKey() string {
	return StorageKey(r.Kind, r.Path)
}

// StorageKey builds the full storage path for a kind and path pair.
func StorageKey(kind, path string) string {
	return "/registry/" + kind + path
}

// RewriteReport summarizes a stale-record rewrite pass.
type RewriteReport struct {
	// Scanned is the number of records examined.
	Scanned int64
	// Rewritten is the number of stale records re-encrypted under the active
	// provider and key.
	Rewritten int64
	// Failed is the number of records that could not be rewritten.
	Failed int64
}
