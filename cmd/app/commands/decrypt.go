package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/kvcrypt/internal/app"
	"github.com/allisson/kvcrypt/internal/config"
	transformDomain "github.com/allisson/kvcrypt/internal/transform/domain"
)

// RunDecrypt reads an envelope from the input, decrypts it through the
// configured transform chain, and writes the plaintext to the output.
//
// The path must match the storage path the envelope was encrypted under. A
// stale envelope decrypts normally; staleness is logged so operators can spot
// records a rewrite pass has not reached yet.
func RunDecrypt(ctx context.Context, path string, ioTuple IOTuple) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	transformer, err := container.Transformer()
	if err != nil {
		return fmt.Errorf("failed to create transformer: %w", err)
	}

	stored, err := io.ReadAll(ioTuple.Reader)
	if err != nil {
		return fmt.Errorf("failed to read envelope: %w", err)
	}

	plaintext, stale, err := transformer.FromStorage(stored, transformDomain.DefaultContext(path))
	if err != nil {
		return fmt.Errorf("failed to decrypt envelope: %w", err)
	}

	if stale {
		logger.Warn("envelope was written under a non-active provider or key",
			slog.String("path", path),
		)
	}

	if _, err := ioTuple.Writer.Write(plaintext); err != nil {
		return fmt.Errorf("failed to write plaintext: %w", err)
	}

	return nil
}
