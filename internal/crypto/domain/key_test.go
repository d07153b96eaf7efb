package domain

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(id string, fill byte) Key {
	material := make([]byte, KeySize)
	for i := range material {
		material[i] = fill
	}
	return Key{ID: id, Material: material}
}

func TestNewKeyring(t *testing.T) {
	t.Run("builds keyring with active and decrypt-only keys", func(t *testing.T) {
		kr, err := NewKeyring("k2", []Key{testKey("k1", 1), testKey("k2", 2)})
		require.NoError(t, err)
		defer kr.Close()

		assert.Equal(t, "k2", kr.ActiveKeyID())

		k1, ok := kr.Get("k1")
		require.True(t, ok)
		assert.Equal(t, "k1", k1.ID)

		_, ok = kr.Get("unknown")
		assert.False(t, ok)

		assert.ElementsMatch(t, []string{"k1", "k2"}, kr.IDs())
	})

	t.Run("copies key material", func(t *testing.T) {
		original := testKey("k1", 7)
		kr, err := NewKeyring("k1", []Key{original})
		require.NoError(t, err)
		defer kr.Close()

		Zero(original.Material)

		stored, ok := kr.Get("k1")
		require.True(t, ok)
		assert.Equal(t, byte(7), stored.Material[0])
	})

	t.Run("rejects empty active key id", func(t *testing.T) {
		_, err := NewKeyring("", []Key{testKey("k1", 1)})
		assert.ErrorIs(t, err, ErrActiveKeyIDNotSet)
	})

	t.Run("rejects active key id not in set", func(t *testing.T) {
		_, err := NewKeyring("missing", []Key{testKey("k1", 1)})
		assert.ErrorIs(t, err, ErrActiveKeyNotFound)
	})

	t.Run("rejects key id containing delimiter", func(t *testing.T) {
		_, err := NewKeyring("k1", []Key{testKey("bad:id", 1)})
		assert.ErrorIs(t, err, ErrInvalidKeyID)
	})

	t.Run("rejects empty key id", func(t *testing.T) {
		_, err := NewKeyring("k1", []Key{{ID: "", Material: make([]byte, KeySize)}})
		assert.ErrorIs(t, err, ErrInvalidKeyID)
	})

	t.Run("rejects wrong key size", func(t *testing.T) {
		_, err := NewKeyring("k1", []Key{{ID: "k1", Material: make([]byte, 16)}})
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})
}

func TestKeyringClose(t *testing.T) {
	kr, err := NewKeyring("k1", []Key{testKey("k1", 9)})
	require.NoError(t, err)

	key, ok := kr.Get("k1")
	require.True(t, ok)

	kr.Close()

	assert.Equal(t, "", kr.ActiveKeyID())
	assert.Equal(t, make([]byte, KeySize), key.Material)
	_, ok = kr.Get("k1")
	assert.False(t, ok)
}

func TestLoadKeyringFromEnv(t *testing.T) {
	k1 := base64.StdEncoding.EncodeToString(make([]byte, KeySize))
	k2Material := make([]byte, KeySize)
	k2Material[0] = 1
	k2 := base64.StdEncoding.EncodeToString(k2Material)

	t.Run("loads keys and active id", func(t *testing.T) {
		t.Setenv("KVCRYPT_KEYS", "k1:"+k1+",k2:"+k2)
		t.Setenv("KVCRYPT_ACTIVE_KEY_ID", "k2")

		kr, err := LoadKeyringFromEnv()
		require.NoError(t, err)
		defer kr.Close()

		assert.Equal(t, "k2", kr.ActiveKeyID())
		key, ok := kr.Get("k2")
		require.True(t, ok)
		assert.Equal(t, byte(1), key.Material[0])
	})

	t.Run("fails when keys are not set", func(t *testing.T) {
		t.Setenv("KVCRYPT_KEYS", "")
		_, err := LoadKeyringFromEnv()
		assert.ErrorIs(t, err, ErrKeysNotSet)
	})

	t.Run("fails when active key id is not set", func(t *testing.T) {
		t.Setenv("KVCRYPT_KEYS", "k1:"+k1)
		t.Setenv("KVCRYPT_ACTIVE_KEY_ID", "")
		_, err := LoadKeyringFromEnv()
		assert.ErrorIs(t, err, ErrActiveKeyIDNotSet)
	})

	t.Run("fails on malformed entry", func(t *testing.T) {
		t.Setenv("KVCRYPT_KEYS", "no-delimiter")
		t.Setenv("KVCRYPT_ACTIVE_KEY_ID", "k1")
		_, err := LoadKeyringFromEnv()
		assert.ErrorIs(t, err, ErrInvalidKeysFormat)
	})

	t.Run("fails on invalid base64", func(t *testing.T) {
		t.Setenv("KVCRYPT_KEYS", "k1:!!!not-base64!!!")
		t.Setenv("KVCRYPT_ACTIVE_KEY_ID", "k1")
		_, err := LoadKeyringFromEnv()
		assert.ErrorIs(t, err, ErrInvalidKeyBase64)
	})

	t.Run("fails on wrong key size", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString(make([]byte, 16))
		t.Setenv("KVCRYPT_KEYS", "k1:"+short)
		t.Setenv("KVCRYPT_ACTIVE_KEY_ID", "k1")
		_, err := LoadKeyringFromEnv()
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})
}

// xorKeeper is a fake KMSKeeper that "decrypts" by XORing with a constant byte.
type xorKeeper struct{}

func (xorKeeper) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	out := make([]byte, len(ciphertext))
	for i, b := range ciphertext {
		out[i] = b ^ 0xAA
	}
	return out, nil
}

func (xorKeeper) Close() error { return nil }

func TestUnwrapKeyringFromEnv(t *testing.T) {
	material := make([]byte, KeySize)
	for i := range material {
		material[i] = byte(i)
	}
	wrapped := make([]byte, KeySize)
	for i, b := range material {
		wrapped[i] = b ^ 0xAA
	}

	t.Run("unwraps key material through the keeper", func(t *testing.T) {
		t.Setenv("KVCRYPT_KEYS", "k1:"+base64.StdEncoding.EncodeToString(wrapped))
		t.Setenv("KVCRYPT_ACTIVE_KEY_ID", "k1")

		kr, err := UnwrapKeyringFromEnv(context.Background(), xorKeeper{})
		require.NoError(t, err)
		defer kr.Close()

		key, ok := kr.Get("k1")
		require.True(t, ok)
		assert.Equal(t, material, key.Material)
	})

	t.Run("fails when keys are not set", func(t *testing.T) {
		t.Setenv("KVCRYPT_KEYS", "")
		_, err := UnwrapKeyringFromEnv(context.Background(), xorKeeper{})
		assert.ErrorIs(t, err, ErrKeysNotSet)
	})
}
