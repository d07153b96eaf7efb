package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/allisson/kvcrypt/internal/config"
	cryptoDomain "github.com/allisson/kvcrypt/internal/crypto/domain"
	transformDomain "github.com/allisson/kvcrypt/internal/transform/domain"
)

// RunInspect parses an envelope from the input and prints its metadata
// without decrypting. No key material is required: only the clear segments
// of the envelope are read.
//
// Staleness is reported against the loaded configuration by comparing the
// envelope's provider ID with ENCRYPTION_PROVIDER_ID and its key ID with
// KVCRYPT_ACTIVE_KEY_ID.
func RunInspect(ctx context.Context, ioTuple IOTuple) error {
	cfg := config.Load()

	stored, err := io.ReadAll(ioTuple.Reader)
	if err != nil {
		return fmt.Errorf("failed to read envelope: %w", err)
	}

	envelope, err := transformDomain.ParseEnvelope(strings.TrimSpace(string(stored)))
	if err != nil {
		return fmt.Errorf("failed to parse envelope: %w", err)
	}

	activeKeyID := os.Getenv("KVCRYPT_ACTIVE_KEY_ID")

	stale := envelope.ProviderID != cfg.EncryptionProviderID
	if activeKeyID != "" && envelope.KeyID != activeKeyID {
		stale = true
	}

	fmt.Fprintf(ioTuple.Writer, "provider_id: %s\n", envelope.ProviderID)
	fmt.Fprintf(ioTuple.Writer, "key_id: %s\n", envelope.KeyID)
	fmt.Fprintf(ioTuple.Writer, "payload_bytes: %d\n", len(envelope.Payload))
	fmt.Fprintf(ioTuple.Writer, "nonce_bytes: %d\n", cryptoDomain.NonceSize)
	fmt.Fprintf(ioTuple.Writer, "stale: %t\n", stale)

	return nil
}
