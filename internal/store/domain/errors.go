// Package domain defines core domain models and errors for record storage.
package domain

import (
	"github.com/allisson/kvcrypt/internal/errors"
)

// Record-specific error definitions.
var (
	// ErrRecordNotFound indicates no record exists at the specified kind and path.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "record not found")
)
