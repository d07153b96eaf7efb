// Package usecase implements business logic orchestration for record storage.
// This package coordinates between the transform layer and repositories so
// that values of encrypted kinds are persisted as envelopes and rewritten
// when key rotation leaves them stale.
package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	cryptoDomain "github.com/allisson/kvcrypt/internal/crypto/domain"
	"github.com/allisson/kvcrypt/internal/database"
	storeDomain "github.com/allisson/kvcrypt/internal/store/domain"
	transformDomain "github.com/allisson/kvcrypt/internal/transform/domain"
	transformService "github.com/allisson/kvcrypt/internal/transform/service"
	appvalidation "github.com/allisson/kvcrypt/internal/validation"
)

// listPageSize is the batch size used when scanning record paths.
const listPageSize = 500

// recordUseCase implements the RecordUseCase interface for managing records.
type recordUseCase struct {
	txManager          database.TxManager
	recordRepo         RecordRepository
	transformers       map[string]transformService.Transformer
	identity           transformService.Transformer
	rewriteRate        float64
	rewriteConcurrency int
	logger             *slog.Logger
}

// transformerFor returns the transformer configured for a kind, falling back
// to the identity transformer for kinds that are not encrypted.
func (r *recordUseCase) transformerFor(kind string) transformService.Transformer {
	if t, ok := r.transformers[kind]; ok {
		return t
	}
	return r.identity
}

// validateKindPath checks the record coordinates before they reach storage.
func validateKindPath(kind, path string) error {
	if err := validation.Validate(kind, validation.Required, appvalidation.Identifier); err != nil {
		return appvalidation.WrapValidationError(err)
	}
	if err := validation.Validate(path, validation.Required, appvalidation.StoragePath); err != nil {
		return appvalidation.WrapValidationError(err)
	}
	return nil
}

// Put encrypts the value through the kind's transformer and upserts the record.
func (r *recordUseCase) Put(
	ctx context.Context,
	kind, path string,
	value []byte,
) (*storeDomain.Record, error) {
	if err := validateKindPath(kind, path); err != nil {
		return nil, err
	}

	dataCtx := transformDomain.DefaultContext(storeDomain.StorageKey(kind, path))

	stored, err := r.transformerFor(kind).ToStorage(value, dataCtx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &storeDomain.Record{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      kind,
		Path:      path,
		Value:     stored,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.recordRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// Get retrieves a record and returns its plaintext value and staleness.
func (r *recordUseCase) Get(ctx context.Context, kind, path string) ([]byte, bool, error) {
	record, err := r.recordRepo.GetByPath(ctx, kind, path)
	if err != nil {
		return nil, false, err
	}

	dataCtx := transformDomain.DefaultContext(record.StorageKey())
	return r.transformerFor(kind).FromStorage(record.Value, dataCtx)
}

// Delete removes a record by kind and path.
func (r *recordUseCase) Delete(ctx context.Context, kind, path string) error {
	return r.recordRepo.Delete(ctx, kind, path)
}

// ListPaths returns record paths of a kind ordered by path with pagination.
func (r *recordUseCase) ListPaths(
	ctx context.Context,
	kind string,
	offset, limit int,
) ([]string, error) {
	return r.recordRepo.ListPaths(ctx, kind, offset, limit)
}

// RewriteStale re-encrypts every stale record of a kind under the active
// provider and key.
//
// The pass is rate limited and runs with bounded concurrency. Each record is
// rewritten in its own transaction: the value is read again inside the
// transaction so a concurrent writer cannot be overwritten with stale data.
// Individual record failures are counted and logged without aborting the pass.
func (r *recordUseCase) RewriteStale(
	ctx context.Context,
	kind string,
) (*storeDomain.RewriteReport, error) {
	var paths []string
	for offset := 0; ; offset += listPageSize {
		page, err := r.recordRepo.ListPaths(ctx, kind, offset, listPageSize)
		if err != nil {
			return nil, err
		}
		paths = append(paths, page...)
		if len(page) < listPageSize {
			break
		}
	}

	var report storeDomain.RewriteReport
	var rewritten, failed atomic.Int64

	limiter := rate.NewLimiter(rate.Limit(r.rewriteRate), r.rewriteConcurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.rewriteConcurrency)

	for _, path := range paths {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}

			changed, err := r.rewriteRecord(gctx, kind, path)
			if err != nil {
				failed.Add(1)
				r.logger.Warn(
					"failed to rewrite record",
					"kind", kind,
					"path", path,
					"error", err,
				)
				return nil
			}

			if changed {
				rewritten.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Scanned = int64(len(paths))
	report.Rewritten = rewritten.Load()
	report.Failed = failed.Load()
	return &report, nil
}

// rewriteRecord re-encrypts a single record if it is stale. It reports whether
// the record was rewritten.
func (r *recordUseCase) rewriteRecord(ctx context.Context, kind, path string) (bool, error) {
	transformer := r.transformerFor(kind)

	var changed bool
	err := r.txManager.WithTx(ctx, func(txCtx context.Context) error {
		record, err := r.recordRepo.GetByPath(txCtx, kind, path)
		if err != nil {
			return err
		}

		dataCtx := transformDomain.DefaultContext(record.StorageKey())

		plaintext, stale, err := transformer.FromStorage(record.Value, dataCtx)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(plaintext)

		if !stale {
			return nil
		}

		stored, err := transformer.ToStorage(plaintext, dataCtx)
		if err != nil {
			return err
		}

		record.Value = stored
		record.UpdatedAt = time.Now().UTC()
		if err := r.recordRepo.Upsert(txCtx, record); err != nil {
			return err
		}

		changed = true
		return nil
	})
	return changed, err
}

// NewRecordUseCase creates a new record use case instance with the provided dependencies.
func NewRecordUseCase(
	txManager database.TxManager,
	recordRepo RecordRepository,
	transformers map[string]transformService.Transformer,
	rewriteRate float64,
	rewriteConcurrency int,
	logger *slog.Logger,
) RecordUseCase {
	if rewriteRate <= 0 {
		rewriteRate = 50.0
	}
	if rewriteConcurrency <= 0 {
		rewriteConcurrency = 1
	}
	return &recordUseCase{
		txManager:          txManager,
		recordRepo:         recordRepo,
		transformers:       transformers,
		identity:           transformService.NewIdentityTransformer(),
		rewriteRate:        rewriteRate,
		rewriteConcurrency: rewriteConcurrency,
		logger:             logger,
	}
}
