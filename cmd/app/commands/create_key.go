package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/kvcrypt/internal/crypto/domain"
	cryptoService "github.com/allisson/kvcrypt/internal/crypto/service"
	appvalidation "github.com/allisson/kvcrypt/internal/validation"
)

// RunCreateKey generates a cryptographically secure 32-byte encryption key.
// Key material is zeroed from memory after encoding. If keyID is empty, a
// UUID-derived ID is generated.
//
// When kmsKeyURI is set, the key is wrapped through the KMS keeper before
// output and the printed blob is a KMS ciphertext. Without it the blob is the
// plain base64-encoded key, which is only suitable for development.
//
// Output format:
//   - KVCRYPT_KEYS="<keyID>:<base64-blob>"
//   - KVCRYPT_ACTIVE_KEY_ID="<keyID>"
func RunCreateKey(ctx context.Context, keyID, kmsKeyURI string) error {
	// Generate default key ID if not provided
	if keyID == "" {
		keyID = fmt.Sprintf("key-%s", uuid.Must(uuid.NewV7()))
	}
	if err := validation.Validate(keyID, appvalidation.Identifier); err != nil {
		return appvalidation.WrapValidationError(err)
	}

	// Generate a cryptographically secure 32-byte key
	material := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(material); err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	defer cryptoDomain.Zero(material)

	blob := material
	if kmsKeyURI != "" {
		kmsService := cryptoService.NewKMSService()
		keeperInterface, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
		if err != nil {
			return fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer func() {
			if closeErr := keeperInterface.Close(); closeErr != nil {
				fmt.Printf("Warning: failed to close KMS keeper: %v\n", closeErr)
			}
		}()

		// Type assert to get Encrypt method (needed for wrapping)
		keeper, ok := keeperInterface.(interface {
			Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
		})
		if !ok {
			return fmt.Errorf("KMS keeper does not support encryption")
		}

		blob, err = keeper.Encrypt(ctx, material)
		if err != nil {
			return fmt.Errorf("failed to wrap key with KMS: %w", err)
		}
	}

	encoded := base64.StdEncoding.EncodeToString(blob)

	fmt.Println("# Key Configuration")
	fmt.Println("# Copy these environment variables to your .env file or secrets manager")
	fmt.Println()
	if kmsKeyURI != "" {
		fmt.Printf("KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	}
	fmt.Printf("KVCRYPT_KEYS=\"%s:%s\"\n", keyID, encoded)
	fmt.Printf("KVCRYPT_ACTIVE_KEY_ID=\"%s\"\n", keyID)
	fmt.Println()
	fmt.Println("# For key rotation, append the new key and keep the old one decrypt-only:")
	fmt.Printf("# KVCRYPT_KEYS=\"%s:%s,new-key:base64-blob\"\n", keyID, encoded)
	fmt.Println("# KVCRYPT_ACTIVE_KEY_ID=\"new-key\"")

	return nil
}
