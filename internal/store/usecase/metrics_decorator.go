package usecase

import (
	"context"
	"time"

	"github.com/allisson/kvcrypt/internal/metrics"
	storeDomain "github.com/allisson/kvcrypt/internal/store/domain"
)

// recordUseCaseWithMetrics decorates RecordUseCase with metrics instrumentation.
type recordUseCaseWithMetrics struct {
	next    RecordUseCase
	metrics metrics.BusinessMetrics
}

// NewRecordUseCaseWithMetrics wraps a RecordUseCase with metrics recording.
func NewRecordUseCaseWithMetrics(useCase RecordUseCase, m metrics.BusinessMetrics) RecordUseCase {
	return &recordUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Put records metrics for record write operations.
func (r *recordUseCaseWithMetrics) Put(
	ctx context.Context,
	kind, path string,
	value []byte,
) (*storeDomain.Record, error) {
	start := time.Now()
	record, err := r.next.Put(ctx, kind, path, value)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "store", "record_put", status)
	r.metrics.RecordDuration(ctx, "store", "record_put", time.Since(start), status)

	return record, err
}

// Get records metrics for record retrieval operations. A read that decodes a
// stale envelope is recorded with status "stale".
func (r *recordUseCaseWithMetrics) Get(
	ctx context.Context,
	kind, path string,
) ([]byte, bool, error) {
	start := time.Now()
	value, stale, err := r.next.Get(ctx, kind, path)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case stale:
		status = "stale"
	}

	r.metrics.RecordOperation(ctx, "store", "record_get", status)
	r.metrics.RecordDuration(ctx, "store", "record_get", time.Since(start), status)

	return value, stale, err
}

// Delete records metrics for record deletion operations.
func (r *recordUseCaseWithMetrics) Delete(ctx context.Context, kind, path string) error {
	start := time.Now()
	err := r.next.Delete(ctx, kind, path)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "store", "record_delete", status)
	r.metrics.RecordDuration(ctx, "store", "record_delete", time.Since(start), status)

	return err
}

// ListPaths records metrics for record listing operations.
func (r *recordUseCaseWithMetrics) ListPaths(
	ctx context.Context,
	kind string,
	offset, limit int,
) ([]string, error) {
	start := time.Now()
	paths, err := r.next.ListPaths(ctx, kind, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "store", "record_list", status)
	r.metrics.RecordDuration(ctx, "store", "record_list", time.Since(start), status)

	return paths, err
}

// RewriteStale records metrics for stale-record rewrite passes.
func (r *recordUseCaseWithMetrics) RewriteStale(
	ctx context.Context,
	kind string,
) (*storeDomain.RewriteReport, error) {
	start := time.Now()
	report, err := r.next.RewriteStale(ctx, kind)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "store", "rewrite_stale", status)
	r.metrics.RecordDuration(ctx, "store", "rewrite_stale", time.Since(start), status)

	return report, err
}
