package domain

import (
	"github.com/allisson/kvcrypt/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures. None of them ever carries
// key material or plaintext in its message.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	//
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// All keys must be exactly 32 bytes (256 bits) for both AES-256-GCM and
	// ChaCha20-Poly1305.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a decryption operation failed.
	//
	// This error can occur due to a wrong decryption key, tampered ciphertext
	// (authentication failure), an invalid nonce, or corrupted data. For security
	// reasons the specific cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrKeysNotSet indicates the KVCRYPT_KEYS environment variable is not configured.
	ErrKeysNotSet = errors.New("KVCRYPT_KEYS environment variable is not set")

	// ErrActiveKeyIDNotSet indicates the KVCRYPT_ACTIVE_KEY_ID environment variable
	// is not configured.
	ErrActiveKeyIDNotSet = errors.New("KVCRYPT_ACTIVE_KEY_ID environment variable is not set")

	// ErrInvalidKeysFormat indicates the key list does not follow the
	// "id:base64key" comma-separated format.
	ErrInvalidKeysFormat = errors.Wrap(errors.ErrInvalidInput, "invalid keys format")

	// ErrInvalidKeyBase64 indicates a key's material is not valid base64.
	ErrInvalidKeyBase64 = errors.Wrap(errors.ErrInvalidInput, "invalid base64 key material")

	// ErrInvalidKeyID indicates a key ID is empty or contains the reserved ':' delimiter.
	ErrInvalidKeyID = errors.Wrap(errors.ErrInvalidInput, "invalid key id")

	// ErrActiveKeyNotFound indicates the configured active key ID is not present
	// in the loaded key set.
	ErrActiveKeyNotFound = errors.Wrap(errors.ErrInvalidInput, "active key not found in keyring")
)
