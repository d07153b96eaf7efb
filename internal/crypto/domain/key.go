// Package domain defines the core cryptographic domain models for encryption at rest.
//
// It provides the symmetric key registry (Keyring) consumed by the transform
// providers, the supported AEAD algorithm identifiers, and loaders that build a
// keyring from already-delivered key material. Key material is owned exclusively
// by the keyring for the process lifetime and is never persisted by this layer.
package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Key represents a symmetric encryption key held by the keyring.
//
// Keys are immutable once loaded. The ID is an opaque, stable identifier that is
// stored in the clear inside every envelope written under this key; it must not
// contain the ':' envelope delimiter.
//
// Fields:
//   - ID: Unique identifier for the key (e.g., "prod-key-2026")
//   - Material: The raw 32-byte symmetric key
type Key struct {
	ID       string
	Material []byte
}

// Keyring manages the set of known symmetric keys with one designated as active.
//
// Exactly one key is the active write key at any time; all other keys are
// decrypt-only. The keyring is built once at process startup and treated as
// immutable afterwards, which makes it safe for unbounded concurrent readers
// with zero synchronization on the read path. Reconfiguration replaces the
// whole keyring atomically; individual entries are never mutated in place.
//
// Key rotation workflow (each step requires a config reload and restart of
// every server sharing the backend):
//  1. Add the new key as decrypt-only alongside the existing active key.
//  2. Promote the new key to active; the old key remains decrypt-only.
//  3. Force a rewrite of all affected records, driven by the stale flag
//     returned on every decode.
//  4. Remove the old key once no stored record references it.
//
// Operators must rotate a key before issuing 2^32 writes under it to preserve
// the nonce-uniqueness requirement of the AEAD constructions.
type Keyring struct {
	activeID string
	keys     sync.Map
}

// ActiveKeyID returns the ID of the key used for new encryptions.
func (k *Keyring) ActiveKeyID() string {
	return k.activeID
}

// Get retrieves a key from the keyring by its ID.
//
// This is used on the decrypt path to resolve the key named by an envelope,
// which may be any registered key, not only the active one.
func (k *Keyring) Get(id string) (*Key, bool) {
	if key, ok := k.keys.Load(id); ok {
		return key.(*Key), ok
	}

	return nil, false
}

// IDs returns the IDs of all registered keys in unspecified order.
func (k *Keyring) IDs() []string {
	var ids []string
	k.keys.Range(func(id, _ any) bool {
		ids = append(ids, id.(string))
		return true
	})
	return ids
}

// Close securely clears all key material from memory and resets the keyring.
//
// Call this during process shutdown or before replacing the keyring after a
// reconfiguration.
func (k *Keyring) Close() {
	k.keys.Range(func(_, value any) bool {
		if key, ok := value.(*Key); ok {
			Zero(key.Material)
		}
		return true
	})
	k.activeID = ""
	k.keys.Clear()
}

// NewKeyring builds a keyring from explicit keys with the given active key ID.
//
// The keyring copies all key material, so callers may zero their own copies
// after construction. Every key must have a valid ID (non-empty, no ':') and
// exactly 32 bytes of material, and activeID must name one of the provided keys.
//
// This constructor is the injection point for synthetic key sets in tests and
// for key material delivered by external collaborators (files, KMS, vault).
func NewKeyring(activeID string, keys []Key) (*Keyring, error) {
	if activeID == "" {
		return nil, ErrActiveKeyIDNotSet
	}

	kr := &Keyring{activeID: activeID}

	for _, key := range keys {
		if key.ID == "" || strings.Contains(key.ID, ":") {
			kr.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyID, key.ID)
		}
		if len(key.Material) != KeySize {
			kr.Close()
			return nil, fmt.Errorf(
				"%w: key %s must be %d bytes, got %d",
				ErrInvalidKeySize,
				key.ID,
				KeySize,
				len(key.Material),
			)
		}
		material := make([]byte, KeySize)
		copy(material, key.Material)
		kr.keys.Store(key.ID, &Key{ID: key.ID, Material: material})
	}

	if _, ok := kr.Get(activeID); !ok {
		kr.Close()
		return nil, fmt.Errorf("%w: %s", ErrActiveKeyNotFound, activeID)
	}

	return kr, nil
}

// LoadKeyringFromEnv loads the keyring from environment variables.
//
// This function reads key configuration from two environment variables:
//   - KVCRYPT_KEYS: Comma-separated list of key entries in format "id:base64key"
//   - KVCRYPT_ACTIVE_KEY_ID: ID of the key to use for new encryptions
//
// Format example:
//
//	KVCRYPT_KEYS="key1:YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXoxMjM0NTY3OA==,key2:MTIzNDU2Nzg5MGFiY2RlZmdoaWprbG1ub3BxcnN0dXZ3eA=="
//	KVCRYPT_ACTIVE_KEY_ID="key2"
//
// Each key must be exactly 32 bytes when base64-decoded and uniquely identified
// by its ID. Temporary decoded key bytes are zeroed after being copied into the
// keyring; on error the keyring is closed to prevent partial initialization.
// In production, prefer KMS-wrapped key material via UnwrapKeyringFromEnv.
func LoadKeyringFromEnv() (*Keyring, error) {
	raw := os.Getenv("KVCRYPT_KEYS")
	if raw == "" {
		return nil, ErrKeysNotSet
	}

	active := os.Getenv("KVCRYPT_ACTIVE_KEY_ID")
	if active == "" {
		return nil, ErrActiveKeyIDNotSet
	}

	keys, err := parseKeyEntries(raw, decodeBase64Material)
	if err != nil {
		return nil, err
	}
	defer zeroKeys(keys)

	return NewKeyring(active, keys)
}

// KMSKeeper abstracts the external key-delivery service used to unwrap key
// material that is stored KMS-encrypted. *secrets.Keeper from gocloud.dev
// implements this interface.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// UnwrapKeyringFromEnv loads a keyring whose key material is KMS-wrapped.
//
// The environment layout is identical to LoadKeyringFromEnv, except that each
// base64 blob is a KMS ciphertext of the 32-byte key rather than the key
// itself. Every blob is unwrapped through the provided keeper before the
// keyring is built. Unwrapped material is zeroed after being copied into the
// keyring.
func UnwrapKeyringFromEnv(ctx context.Context, keeper KMSKeeper) (*Keyring, error) {
	raw := os.Getenv("KVCRYPT_KEYS")
	if raw == "" {
		return nil, ErrKeysNotSet
	}

	active := os.Getenv("KVCRYPT_ACTIVE_KEY_ID")
	if active == "" {
		return nil, ErrActiveKeyIDNotSet
	}

	keys, err := parseKeyEntries(raw, func(id, blob string) ([]byte, error) {
		wrapped, err := base64.StdEncoding.DecodeString(blob)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidKeyBase64, id, err)
		}
		material, err := keeper.Decrypt(ctx, wrapped)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap key %s: %w", id, err)
		}
		return material, nil
	})
	if err != nil {
		return nil, err
	}
	defer zeroKeys(keys)

	return NewKeyring(active, keys)
}

// decodeBase64Material decodes plain base64-encoded key material.
func decodeBase64Material(id, blob string) ([]byte, error) {
	material, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidKeyBase64, id, err)
	}
	return material, nil
}

// parseKeyEntries parses a comma-separated "id:blob" list, resolving each blob
// to key material with the provided decode function.
func parseKeyEntries(raw string, decode func(id, blob string) ([]byte, error)) ([]Key, error) {
	var keys []Key

	for part := range strings.SplitSeq(raw, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			zeroKeys(keys)
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeysFormat, part)
		}
		material, err := decode(p[0], p[1])
		if err != nil {
			zeroKeys(keys)
			return nil, err
		}
		keys = append(keys, Key{ID: p[0], Material: material})
	}

	return keys, nil
}

// zeroKeys clears the material of every key in the slice.
func zeroKeys(keys []Key) {
	for i := range keys {
		zero(keys[i].Material)
	}
}
