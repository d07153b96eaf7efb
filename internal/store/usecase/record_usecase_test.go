package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cryptoDomain "github.com/allisson/kvcrypt/internal/crypto/domain"
	cryptoService "github.com/allisson/kvcrypt/internal/crypto/service"
	apperrors "github.com/allisson/kvcrypt/internal/errors"
	storeDomain "github.com/allisson/kvcrypt/internal/store/domain"
	transformService "github.com/allisson/kvcrypt/internal/transform/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// passthroughTxManager runs the callback without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memoryRecordRepository is an in-memory RecordRepository for tests.
type memoryRecordRepository struct {
	mu      sync.Mutex
	records map[string]*storeDomain.Record
}

func newMemoryRecordRepository() *memoryRecordRepository {
	return &memoryRecordRepository{records: make(map[string]*storeDomain.Record)}
}

func (m *memoryRecordRepository) key(kind, path string) string {
	return kind + "\x00" + path
}

func (m *memoryRecordRepository) Upsert(_ context.Context, record *storeDomain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *record
	clone.Value = append([]byte(nil), record.Value...)
	m.records[m.key(record.Kind, record.Path)] = &clone
	return nil
}

func (m *memoryRecordRepository) GetByPath(
	_ context.Context,
	kind, path string,
) (*storeDomain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[m.key(kind, path)]
	if !ok {
		return nil, storeDomain.ErrRecordNotFound
	}

	clone := *record
	clone.Value = append([]byte(nil), record.Value...)
	return &clone, nil
}

func (m *memoryRecordRepository) ListPaths(
	_ context.Context,
	kind string,
	offset, limit int,
) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var paths []string
	for key, record := range m.records {
		if strings.HasPrefix(key, kind+"\x00") {
			paths = append(paths, record.Path)
		}
	}

	if offset >= len(paths) {
		return nil, nil
	}
	end := min(offset+limit, len(paths))
	return paths[offset:end], nil
}

func (m *memoryRecordRepository) Delete(_ context.Context, kind, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.key(kind, path)
	if _, ok := m.records[key]; !ok {
		return storeDomain.ErrRecordNotFound
	}
	delete(m.records, key)
	return nil
}

func newAEADTransformer(t *testing.T, activeKeyID string, fills map[string]byte) transformService.Transformer {
	t.Helper()

	var keys []cryptoDomain.Key
	for id, fill := range fills {
		material := make([]byte, cryptoDomain.KeySize)
		for i := range material {
			material[i] = fill
		}
		keys = append(keys, cryptoDomain.Key{ID: id, Material: material})
	}

	kr, err := cryptoDomain.NewKeyring(activeKeyID, keys)
	require.NoError(t, err)
	t.Cleanup(kr.Close)

	tr, err := transformService.NewAEADTransformer(
		"test-aead-v1", kr, cryptoService.NewAEADManager(), cryptoDomain.AESGCM,
	)
	require.NoError(t, err)
	return tr
}

func newTestUseCase(
	repo RecordRepository,
	transformers map[string]transformService.Transformer,
) RecordUseCase {
	logger := slog.New(slog.DiscardHandler)
	return NewRecordUseCase(passthroughTxManager{}, repo, transformers, 1000.0, 4, logger)
}

func TestRecordUseCase_PutAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRecordRepository()
	transformer := newAEADTransformer(t, "k1", map[string]byte{"k1": 0})
	uc := newTestUseCase(repo, map[string]transformService.Transformer{"secrets": transformer})

	t.Run("encrypted kind round-trips", func(t *testing.T) {
		value := []byte("db-password")

		record, err := uc.Put(ctx, "secrets", "/ns/name", value)
		require.NoError(t, err)

		// The persisted value is an envelope, never the plaintext.
		assert.NotEqual(t, value, record.Value)
		assert.True(t, strings.HasPrefix(string(record.Value), "test-aead-v1:k1:"))

		got, stale, err := uc.Get(ctx, "secrets", "/ns/name")
		require.NoError(t, err)
		assert.False(t, stale)
		assert.Equal(t, value, got)
	})

	t.Run("unencrypted kind passes through", func(t *testing.T) {
		value := []byte("plain config data")

		record, err := uc.Put(ctx, "configmaps", "/ns/name", value)
		require.NoError(t, err)
		assert.Equal(t, value, record.Value)

		got, stale, err := uc.Get(ctx, "configmaps", "/ns/name")
		require.NoError(t, err)
		assert.False(t, stale)
		assert.Equal(t, value, got)
	})

	t.Run("missing record", func(t *testing.T) {
		_, _, err := uc.Get(ctx, "secrets", "/missing")
		assert.ErrorIs(t, err, storeDomain.ErrRecordNotFound)
	})

	t.Run("rejects invalid coordinates", func(t *testing.T) {
		_, err := uc.Put(ctx, "bad:kind", "/ns/name", []byte("value"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, err = uc.Put(ctx, "secrets", "no-leading-slash", []byte("value"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, err = uc.Put(ctx, "secrets", "", []byte("value"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestRecordUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRecordRepository()
	uc := newTestUseCase(repo, nil)

	_, err := uc.Put(ctx, "secrets", "/ns/name", []byte("value"))
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, "secrets", "/ns/name"))
	assert.ErrorIs(t, uc.Delete(ctx, "secrets", "/ns/name"), storeDomain.ErrRecordNotFound)
}

func TestRecordUseCase_RewriteStale(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRecordRepository()

	// Write records while k1 is the active key.
	oldTransformer := newAEADTransformer(t, "k1", map[string]byte{"k1": 1, "k2": 2})
	oldUC := newTestUseCase(repo, map[string]transformService.Transformer{"secrets": oldTransformer})

	paths := []string{"/ns/a", "/ns/b", "/ns/c"}
	for _, path := range paths {
		_, err := oldUC.Put(ctx, "secrets", path, []byte("value-"+path))
		require.NoError(t, err)
	}

	// Promote k2. All existing envelopes become stale.
	newTransformer := newAEADTransformer(t, "k2", map[string]byte{"k1": 1, "k2": 2})
	newUC := newTestUseCase(repo, map[string]transformService.Transformer{"secrets": newTransformer})

	_, stale, err := newUC.Get(ctx, "secrets", "/ns/a")
	require.NoError(t, err)
	require.True(t, stale)

	report, err := newUC.RewriteStale(ctx, "secrets")
	require.NoError(t, err)
	assert.Equal(t, int64(len(paths)), report.Scanned)
	assert.Equal(t, int64(len(paths)), report.Rewritten)
	assert.Equal(t, int64(0), report.Failed)

	// Every record now decodes fresh under k2 with its value intact.
	for _, path := range paths {
		value, stale, err := newUC.Get(ctx, "secrets", path)
		require.NoError(t, err)
		assert.False(t, stale)
		assert.Equal(t, []byte("value-"+path), value)
	}

	// A second pass finds nothing to rewrite.
	report, err = newUC.RewriteStale(ctx, "secrets")
	require.NoError(t, err)
	assert.Equal(t, int64(len(paths)), report.Scanned)
	assert.Equal(t, int64(0), report.Rewritten)
}

func TestRecordUseCase_RewriteStale_CountsFailures(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRecordRepository()

	transformer := newAEADTransformer(t, "k1", map[string]byte{"k1": 0})
	uc := newTestUseCase(repo, map[string]transformService.Transformer{"secrets": transformer})

	_, err := uc.Put(ctx, "secrets", "/ns/good", []byte("value"))
	require.NoError(t, err)

	// Corrupt one record directly in the repository.
	require.NoError(t, repo.Upsert(ctx, &storeDomain.Record{
		Kind:  "secrets",
		Path:  "/ns/corrupt",
		Value: []byte("not-an-envelope"),
	}))

	report, err := uc.RewriteStale(ctx, "secrets")
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Scanned)
	assert.Equal(t, int64(0), report.Rewritten)
	assert.Equal(t, int64(1), report.Failed)
}
