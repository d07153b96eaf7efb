package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/allisson/kvcrypt/internal/app"
	"github.com/allisson/kvcrypt/internal/config"
	transformDomain "github.com/allisson/kvcrypt/internal/transform/domain"
)

// RunEncrypt reads a plaintext value from the input, encrypts it through the
// configured transform chain, and writes the envelope to the output.
//
// The storage path binds the ciphertext: decryption only succeeds when the
// same path is supplied, so the printed envelope is only valid for a record
// stored under that path.
func RunEncrypt(ctx context.Context, path string, ioTuple IOTuple) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	transformer, err := container.Transformer()
	if err != nil {
		return fmt.Errorf("failed to create transformer: %w", err)
	}

	plaintext, err := io.ReadAll(ioTuple.Reader)
	if err != nil {
		return fmt.Errorf("failed to read plaintext: %w", err)
	}

	stored, err := transformer.ToStorage(plaintext, transformDomain.DefaultContext(path))
	if err != nil {
		return fmt.Errorf("failed to encrypt value: %w", err)
	}

	if _, err := ioTuple.Writer.Write(stored); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}

	return nil
}
