package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInspect(t *testing.T) {
	t.Run("prints envelope metadata", func(t *testing.T) {
		t.Setenv("ENCRYPTION_PROVIDER_ID", "kvcrypt-aes-gcm-v1")
		t.Setenv("KVCRYPT_ACTIVE_KEY_ID", "k1")

		var out bytes.Buffer
		ioTuple := IOTuple{
			Reader: strings.NewReader("kvcrypt-aes-gcm-v1:k1:bm9uY2Vub25jZTEyY2lwaGVydGV4dA==\n"),
			Writer: &out,
		}

		err := RunInspect(context.Background(), ioTuple)
		require.NoError(t, err)

		assert.Contains(t, out.String(), "provider_id: kvcrypt-aes-gcm-v1")
		assert.Contains(t, out.String(), "key_id: k1")
		assert.Contains(t, out.String(), "stale: false")
	})

	t.Run("reports stale for non-active key", func(t *testing.T) {
		t.Setenv("ENCRYPTION_PROVIDER_ID", "kvcrypt-aes-gcm-v1")
		t.Setenv("KVCRYPT_ACTIVE_KEY_ID", "k2")

		var out bytes.Buffer
		ioTuple := IOTuple{
			Reader: strings.NewReader("kvcrypt-aes-gcm-v1:k1:bm9uY2Vub25jZTEyY2lwaGVydGV4dA=="),
			Writer: &out,
		}

		err := RunInspect(context.Background(), ioTuple)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "stale: true")
	})

	t.Run("rejects malformed envelope", func(t *testing.T) {
		var out bytes.Buffer
		ioTuple := IOTuple{
			Reader: strings.NewReader("not-an-envelope"),
			Writer: &out,
		}

		err := RunInspect(context.Background(), ioTuple)
		assert.Error(t, err)
	})
}
