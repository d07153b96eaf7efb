package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeDomain "github.com/allisson/kvcrypt/internal/store/domain"
)

type fakeBusinessMetrics struct {
	operations []string
}

func (f *fakeBusinessMetrics) RecordOperation(_ context.Context, domain, operation, status string) {
	f.operations = append(f.operations, domain+"/"+operation+"/"+status)
}

func (f *fakeBusinessMetrics) RecordDuration(
	_ context.Context,
	_, _ string,
	_ time.Duration,
	_ string,
) {
}

type fakeRecordUseCase struct {
	stale bool
	err   error
}

func (f *fakeRecordUseCase) Put(
	_ context.Context,
	kind, path string,
	value []byte,
) (*storeDomain.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &storeDomain.Record{Kind: kind, Path: path, Value: value}, nil
}

func (f *fakeRecordUseCase) Get(_ context.Context, _, _ string) ([]byte, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return []byte("value"), f.stale, nil
}

func (f *fakeRecordUseCase) Delete(_ context.Context, _, _ string) error {
	return f.err
}

func (f *fakeRecordUseCase) ListPaths(_ context.Context, _ string, _, _ int) ([]string, error) {
	return nil, f.err
}

func (f *fakeRecordUseCase) RewriteStale(
	_ context.Context,
	_ string,
) (*storeDomain.RewriteReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &storeDomain.RewriteReport{}, nil
}

func TestRecordUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("records success statuses", func(t *testing.T) {
		fm := &fakeBusinessMetrics{}
		uc := NewRecordUseCaseWithMetrics(&fakeRecordUseCase{}, fm)

		_, err := uc.Put(ctx, "secrets", "/ns/name", []byte("value"))
		require.NoError(t, err)

		_, _, err = uc.Get(ctx, "secrets", "/ns/name")
		require.NoError(t, err)

		require.NoError(t, uc.Delete(ctx, "secrets", "/ns/name"))

		_, err = uc.ListPaths(ctx, "secrets", 0, 10)
		require.NoError(t, err)

		_, err = uc.RewriteStale(ctx, "secrets")
		require.NoError(t, err)

		assert.Equal(t, []string{
			"store/record_put/success",
			"store/record_get/success",
			"store/record_delete/success",
			"store/record_list/success",
			"store/rewrite_stale/success",
		}, fm.operations)
	})

	t.Run("records stale reads", func(t *testing.T) {
		fm := &fakeBusinessMetrics{}
		uc := NewRecordUseCaseWithMetrics(&fakeRecordUseCase{stale: true}, fm)

		_, stale, err := uc.Get(ctx, "secrets", "/ns/name")
		require.NoError(t, err)
		assert.True(t, stale)

		assert.Equal(t, []string{"store/record_get/stale"}, fm.operations)
	})

	t.Run("records errors", func(t *testing.T) {
		fm := &fakeBusinessMetrics{}
		uc := NewRecordUseCaseWithMetrics(&fakeRecordUseCase{err: assert.AnError}, fm)

		_, _, err := uc.Get(ctx, "secrets", "/ns/name")
		assert.Error(t, err)

		assert.Equal(t, []string{"store/record_get/error"}, fm.operations)
	})
}
