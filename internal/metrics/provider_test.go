package metrics

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("kvcrypt")
	require.NoError(t, err)
	assert.NotNil(t, provider.MeterProvider())

	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})
}

func TestProvider_Handler(t *testing.T) {
	provider, err := NewProvider("kvcrypt")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	provider.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
}
