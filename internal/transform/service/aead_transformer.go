package service

import (
	"fmt"
	"strings"

	cryptoDomain "github.com/allisson/kvcrypt/internal/crypto/domain"
	cryptoService "github.com/allisson/kvcrypt/internal/crypto/service"
	apperrors "github.com/allisson/kvcrypt/internal/errors"
	transformDomain "github.com/allisson/kvcrypt/internal/transform/domain"
)

// AEADTransformer implements the Transformer interface on top of an AEAD
// cipher and a keyring.
//
// One cipher per registered key is resolved once at construction into an
// immutable map, so the hot path performs no cipher setup and no locking. The
// transformer encrypts exclusively under the keyring's active key and decrypts
// under any registered key, reporting staleness when the envelope's key is not
// the active one.
//
// The same implementation backs both the AES-256-GCM reference provider and
// the ChaCha20-Poly1305 provider; the provider ID and algorithm are fixed at
// construction and bound to each other for the lifetime of the stored data.
type AEADTransformer struct {
	providerID  string
	activeKeyID string
	ciphers     map[string]cryptoService.AEAD
	binary      bool
}

// AEADOption configures an AEADTransformer.
type AEADOption func(*AEADTransformer)

// WithBinaryEnvelopes makes the transformer emit and parse the binary envelope
// variant (raw payload bytes) instead of the text-safe base64 variant. Use it
// when the backend stores raw bytes; the default text variant is required for
// backends that only accept text-safe values.
func WithBinaryEnvelopes() AEADOption {
	return func(t *AEADTransformer) {
		t.binary = true
	}
}

// NewAEADTransformer creates a transform provider for the given provider ID,
// keyring, and algorithm.
//
// Every key in the keyring is resolved to an AEAD cipher up front; a key that
// cannot back a cipher (wrong size, unsupported algorithm) fails construction
// rather than surfacing later on the decrypt path. The provider ID must be
// non-empty and must not contain the ':' envelope delimiter.
func NewAEADTransformer(
	providerID string,
	keyring *cryptoDomain.Keyring,
	aeadManager cryptoService.AEADManager,
	alg cryptoDomain.Algorithm,
	opts ...AEADOption,
) (*AEADTransformer, error) {
	if providerID == "" || strings.Contains(providerID, ":") {
		return nil, fmt.Errorf("%w: invalid provider id %q", apperrors.ErrInvalidInput, providerID)
	}

	ciphers := make(map[string]cryptoService.AEAD)
	for _, id := range keyring.IDs() {
		key, ok := keyring.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", transformDomain.ErrUnknownKey, id)
		}
		cipher, err := aeadManager.CreateCipher(key.Material, alg)
		if err != nil {
			return nil, apperrors.Wrap(err, fmt.Sprintf("failed to create cipher for key %s", id))
		}
		ciphers[id] = cipher
	}

	t := &AEADTransformer{
		providerID:  providerID,
		activeKeyID: keyring.ActiveKeyID(),
		ciphers:     ciphers,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// ProviderID returns the provider identifier written into every envelope.
func (t *AEADTransformer) ProviderID() string {
	return t.providerID
}

// ToStorage encrypts plaintext under the active key.
//
// A fresh nonce is generated per call; the payload is the nonce followed by
// the ciphertext, and the envelope is "providerID:keyID:payload". Encryption
// fails only on fatal primitive errors, which are surfaced to the caller.
func (t *AEADTransformer) ToStorage(
	plaintext []byte,
	dataCtx transformDomain.Context,
) ([]byte, error) {
	cipher, ok := t.ciphers[t.activeKeyID]
	if !ok {
		return nil, fmt.Errorf("%w: active key %s", transformDomain.ErrUnknownKey, t.activeKeyID)
	}

	ciphertext, nonce, err := cipher.Encrypt(plaintext, dataCtx.AuthenticatedData())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt value")
	}

	// Payload layout: nonce || ciphertext (tag implicit in the AEAD ciphertext)
	payload := make([]byte, 0, len(nonce)+len(ciphertext))
	payload = append(payload, nonce...)
	payload = append(payload, ciphertext...)

	envelope := transformDomain.Envelope{
		ProviderID: t.providerID,
		KeyID:      t.activeKeyID,
		Payload:    payload,
	}

	if t.binary {
		return envelope.Bytes(), nil
	}
	return []byte(envelope.String()), nil
}

// FromStorage decrypts a stored envelope produced by this provider.
//
// The decode proceeds parse envelope, resolve key, open AEAD, determine
// staleness; each step fails with its own typed error and no plaintext is ever
// returned after a failed authentication.
func (t *AEADTransformer) FromStorage(
	stored []byte,
	dataCtx transformDomain.Context,
) ([]byte, bool, error) {
	envelope, err := t.parseEnvelope(stored)
	if err != nil {
		return nil, false, err
	}

	if envelope.ProviderID != t.providerID {
		return nil, false, fmt.Errorf("%w: %s", transformDomain.ErrUnknownProvider, envelope.ProviderID)
	}

	cipher, ok := t.ciphers[envelope.KeyID]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", transformDomain.ErrUnknownKey, envelope.KeyID)
	}

	nonceSize := cipher.NonceSize()
	if len(envelope.Payload) < nonceSize {
		return nil, false, fmt.Errorf("%w: payload shorter than nonce", transformDomain.ErrMalformedEnvelope)
	}

	nonce := envelope.Payload[:nonceSize]
	ciphertext := envelope.Payload[nonceSize:]

	plaintext, err := cipher.Decrypt(ciphertext, nonce, dataCtx.AuthenticatedData())
	if err != nil {
		return nil, false, transformDomain.ErrIntegrityCheckFailed
	}

	stale := envelope.KeyID != t.activeKeyID
	return plaintext, stale, nil
}

// parseEnvelope decodes the configured envelope variant.
func (t *AEADTransformer) parseEnvelope(stored []byte) (transformDomain.Envelope, error) {
	if t.binary {
		return transformDomain.ParseEnvelopeBytes(stored)
	}
	return transformDomain.ParseEnvelope(string(stored))
}

// Compile-time interface check.
var _ Transformer = (*AEADTransformer)(nil)
