// Package service implements the encryption-at-rest transform providers.
//
// A Transformer converts plaintext record values to authenticated ciphertext
// envelopes before they reach the key-value backend and reverses the
// conversion on read, without the calling storage layer knowing encryption
// occurred. The chain resolver dispatches stored envelopes to the provider
// that wrote them, which keeps multiple providers readable during a migration
// while exactly one produces new writes.
package service

import (
	transformDomain "github.com/allisson/kvcrypt/internal/transform/domain"
)

// Transformer converts record values to and from their stored representation.
//
// Implementations are CPU-bound, perform no I/O, and must be safe for
// concurrent use from many request-handling goroutines.
type Transformer interface {
	// ToStorage encrypts plaintext under the currently active key and provider.
	// The dataCtx is authenticated but not stored; the identical context must
	// be supplied to FromStorage. Fails only on fatal primitive errors (e.g.
	// nonce generation), which are surfaced, never retried.
	ToStorage(plaintext []byte, dataCtx transformDomain.Context) ([]byte, error)

	// FromStorage decrypts a stored envelope. The stale flag is true when the
	// envelope was written under a key or provider that is no longer the active
	// one, signaling the caller that a no-op rewrite is desirable. Fails with
	// ErrMalformedEnvelope, ErrUnknownKey, ErrUnknownProvider, or
	// ErrIntegrityCheckFailed; a failed authentication never yields plaintext.
	FromStorage(stored []byte, dataCtx transformDomain.Context) (plaintext []byte, stale bool, err error)
}

// Default provider identifiers. A provider ID is permanently bound to one
// algorithm and envelope layout: decoding code for a given ID must always be
// able to parse data any past version of that same ID wrote, so these are
// never reused for an incompatible format.
const (
	// DefaultAESGCMProviderID identifies the AES-256-GCM reference provider.
	DefaultAESGCMProviderID = "kvcrypt-aes-gcm-v1"

	// DefaultChaCha20ProviderID identifies the ChaCha20-Poly1305 provider.
	DefaultChaCha20ProviderID = "kvcrypt-chacha20-v1"
)
