package service

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAESGCM(t *testing.T) {
	t.Run("creates cipher with valid key", func(t *testing.T) {
		key := make([]byte, 32)
		_, err := rand.Read(key)
		require.NoError(t, err)

		cipher, err := NewAESGCM(key)
		require.NoError(t, err)
		assert.NotNil(t, cipher)
		assert.Equal(t, 12, cipher.NonceSize())
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := NewAESGCM(make([]byte, 16))
		assert.Error(t, err)
	})

	t.Run("rejects long key", func(t *testing.T) {
		_, err := NewAESGCM(make([]byte, 64))
		assert.Error(t, err)
	})

	t.Run("rejects nil key", func(t *testing.T) {
		_, err := NewAESGCM(nil)
		assert.Error(t, err)
	})
}

func TestAESGCMCipher_EncryptDecrypt(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cipher, err := NewAESGCM(key)
	require.NoError(t, err)

	t.Run("round-trips plaintext with AAD", func(t *testing.T) {
		plaintext := []byte("sensitive record value")
		aad := []byte("/registry/widgets/ns/name")

		ciphertext, nonce, err := cipher.Encrypt(plaintext, aad)
		require.NoError(t, err)
		assert.Len(t, nonce, 12)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, aad)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("round-trips without AAD", func(t *testing.T) {
		plaintext := []byte("no context")

		ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
		require.NoError(t, err)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, nil)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("round-trips empty plaintext", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte{}, nil)
		require.NoError(t, err)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, nil)
		require.NoError(t, err)
		assert.Empty(t, decrypted)
	})

	t.Run("fails with wrong AAD", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte("data"), []byte("/path/a"))
		require.NoError(t, err)

		_, err = cipher.Decrypt(ciphertext, nonce, []byte("/path/b"))
		assert.Error(t, err)
	})

	t.Run("fails with tampered ciphertext", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte("data"), nil)
		require.NoError(t, err)

		ciphertext[0] ^= 0x01

		_, err = cipher.Decrypt(ciphertext, nonce, nil)
		assert.Error(t, err)
	})

	t.Run("fails with wrong nonce", func(t *testing.T) {
		ciphertext, _, err := cipher.Encrypt([]byte("data"), nil)
		require.NoError(t, err)

		_, err = cipher.Decrypt(ciphertext, make([]byte, 12), nil)
		assert.Error(t, err)
	})
}

func TestAESGCMCipher_NonceUniqueness(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cipher, err := NewAESGCM(key)
	require.NoError(t, err)

	const samples = 10000
	seen := make(map[string]struct{}, samples)
	plaintext := []byte("x")

	for range samples {
		_, nonce, err := cipher.Encrypt(plaintext, nil)
		require.NoError(t, err)

		_, dup := seen[string(nonce)]
		require.False(t, dup, "nonce repeated within %d encryptions", samples)
		seen[string(nonce)] = struct{}{}
	}
}

func TestAESGCMCipher_InjectableNonceSource(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cipher, err := NewAESGCM(key)
	require.NoError(t, err)

	fixed := bytes.Repeat([]byte{0x42}, 12)
	cipher.nonceSource = bytes.NewReader(fixed)

	_, nonce, err := cipher.Encrypt([]byte("data"), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed, nonce)

	// Source exhausted: nonce generation must fail, never fall back silently.
	_, _, err = cipher.Encrypt([]byte("data"), nil)
	assert.Error(t, err)
}
