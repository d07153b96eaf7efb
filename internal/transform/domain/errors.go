package domain

import (
	"github.com/allisson/kvcrypt/internal/errors"
)

// Transform layer error definitions.
//
// All of these are surfaced typed to the calling storage layer and never
// swallowed or retried: retrying would not change a structurally malformed
// envelope or a missing key, and treating an authentication failure as "no
// data" could mask tampering. No error message ever contains key material or
// plaintext.
var (
	// ErrMalformedEnvelope indicates the stored value does not follow the
	// "providerID:keyID:payload" layout. Usually data corruption, or legacy
	// unencrypted data fed to the decryption path.
	ErrMalformedEnvelope = errors.Wrap(errors.ErrInvalidInput, "malformed envelope")

	// ErrUnknownProvider indicates the envelope names a provider that is not
	// registered in the transform chain. Typically a downgrade scenario where a
	// server runs an older configuration than the one that wrote the data.
	ErrUnknownProvider = errors.Wrap(errors.ErrNotFound, "unknown transform provider")

	// ErrUnknownKey indicates the envelope names a key that is not present in
	// the keyring. Usually a key that was removed from configuration before all
	// records written under it were rewritten.
	ErrUnknownKey = errors.Wrap(errors.ErrNotFound, "unknown key")

	// ErrIntegrityCheckFailed indicates the AEAD authentication tag did not
	// verify: tampered ciphertext, corruption, or a mismatched
	// authenticated-data context.
	ErrIntegrityCheckFailed = errors.Wrap(errors.ErrInvalidInput, "integrity check failed")
)
