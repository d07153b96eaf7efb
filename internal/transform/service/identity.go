package service

import (
	transformDomain "github.com/allisson/kvcrypt/internal/transform/domain"
)

// IdentityTransformer passes values through unchanged.
//
// It is the transform applied to resource kinds that are not configured for
// encryption, so the storage layer can run every read and write through a
// Transformer unconditionally.
type IdentityTransformer struct{}

// NewIdentityTransformer creates a pass-through transformer.
func NewIdentityTransformer() *IdentityTransformer {
	return &IdentityTransformer{}
}

// ToStorage returns the plaintext unchanged.
func (i *IdentityTransformer) ToStorage(plaintext []byte, _ transformDomain.Context) ([]byte, error) {
	return plaintext, nil
}

// FromStorage returns the stored bytes unchanged and never reports staleness.
func (i *IdentityTransformer) FromStorage(stored []byte, _ transformDomain.Context) ([]byte, bool, error) {
	return stored, false, nil
}

// Compile-time interface check.
var _ Transformer = (*IdentityTransformer)(nil)
