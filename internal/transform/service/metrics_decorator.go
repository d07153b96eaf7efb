package service

import (
	"context"
	"time"

	"github.com/allisson/kvcrypt/internal/metrics"
	transformDomain "github.com/allisson/kvcrypt/internal/transform/domain"
)

// transformerWithMetrics decorates a Transformer with metrics instrumentation.
//
// Transform operations carry no context.Context of their own (they are
// synchronous and CPU-bound), so metrics are recorded against the background
// context. A stale decode is recorded with status "stale" to make rotation
// progress observable.
type transformerWithMetrics struct {
	next    Transformer
	metrics metrics.BusinessMetrics
}

// NewTransformerWithMetrics wraps a Transformer with metrics recording.
func NewTransformerWithMetrics(t Transformer, m metrics.BusinessMetrics) Transformer {
	return &transformerWithMetrics{
		next:    t,
		metrics: m,
	}
}

// ToStorage records metrics for encryption operations.
func (t *transformerWithMetrics) ToStorage(
	plaintext []byte,
	dataCtx transformDomain.Context,
) ([]byte, error) {
	start := time.Now()
	stored, err := t.next.ToStorage(plaintext, dataCtx)

	status := "success"
	if err != nil {
		status = "error"
	}

	ctx := context.Background()
	t.metrics.RecordOperation(ctx, "transform", "to_storage", status)
	t.metrics.RecordDuration(ctx, "transform", "to_storage", time.Since(start), status)

	return stored, err
}

// FromStorage records metrics for decryption operations.
func (t *transformerWithMetrics) FromStorage(
	stored []byte,
	dataCtx transformDomain.Context,
) ([]byte, bool, error) {
	start := time.Now()
	plaintext, stale, err := t.next.FromStorage(stored, dataCtx)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case stale:
		status = "stale"
	}

	ctx := context.Background()
	t.metrics.RecordOperation(ctx, "transform", "from_storage", status)
	t.metrics.RecordDuration(ctx, "transform", "from_storage", time.Since(start), status)

	return plaintext, stale, err
}
