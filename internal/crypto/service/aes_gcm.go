package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// AESGCMCipher implements the AEAD interface using AES-256-GCM
// (Advanced Encryption Standard with Galois/Counter Mode).
//
// AES-GCM provides authenticated encryption with associated data (AEAD), combining
// the confidentiality of AES encryption with the authenticity of GMAC. This
// implementation uses AES-256 with a 256-bit key.
//
// Security properties:
//   - 256-bit key size
//   - 12-byte nonce (96 bits, randomly generated per encryption)
//   - 16-byte authentication tag (128 bits, appended to ciphertext)
//   - Authenticated encryption prevents tampering and forgery
//
// Thread safety:
//
//	The cipher instance is stateless and safe for concurrent use from multiple
//	goroutines. Each encryption operation generates a unique nonce independently
//	from a source that is itself safe for concurrent use.
//
// Example usage:
//
//	cipher, err := NewAESGCM(key)
//	if err != nil {
//	    return err
//	}
//
//	// Bind the ciphertext to the record's storage path
//	path := []byte("/registry/widgets/ns/name")
//	ciphertext, nonce, err := cipher.Encrypt(plaintext, path)
//
//	// Decrypt (must use the same AAD)
//	plaintext, err := cipher.Decrypt(ciphertext, nonce, path)
type AESGCMCipher struct {
	aead cipher.AEAD

	// nonceSource defaults to crypto/rand.Reader; tests may replace it with a
	// deterministic reader to exercise nonce handling.
	nonceSource io.Reader
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
//
// The key must be exactly 32 bytes (256 bits) for AES-256. Keys should be
// generated using crypto/rand for cryptographic security.
//
// Returns an error if the key size is invalid or cipher initialization fails.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != 32 {
		return nil, errors.New("key must be exactly 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead, nonceSource: rand.Reader}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM with optional additional authenticated data.
//
// The AAD (Additional Authenticated Data) is authenticated but not encrypted,
// binding the ciphertext to its context (here: the record's storage path) without
// encrypting it. This prevents a ciphertext from being replayed at a different
// location even if intercepted. Pass nil for AAD if no additional data needs to
// be authenticated.
//
// A unique 12-byte nonce is generated for each encryption operation. The nonce
// must be stored alongside the ciphertext for later decryption. With GCM, it is
// critical that nonces are never reused with the same key; rotate keys well
// before 2^32 encryptions.
//
// The returned ciphertext includes the 16-byte authentication tag appended to
// the end. A nonce generation failure is fatal to the write and is surfaced,
// never retried.
func (a *AESGCMCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, a.aead.NonceSize())
	if _, err := io.ReadFull(a.nonceSource, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = a.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// Decrypt decrypts ciphertext using AES-256-GCM with the provided nonce and AAD.
//
// The same AAD used during encryption must be provided for successful
// decryption. If the AAD doesn't match, authentication fails and an error is
// returned. This method verifies the authentication tag before returning
// plaintext; if verification fails, no plaintext is returned.
func (a *AESGCMCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// NonceSize returns the nonce length in bytes (12 for AES-GCM).
func (a *AESGCMCipher) NonceSize() int {
	return a.aead.NonceSize()
}
