package service

import (
	"fmt"
	"strings"

	apperrors "github.com/allisson/kvcrypt/internal/errors"
	transformDomain "github.com/allisson/kvcrypt/internal/transform/domain"
)

// RegisteredTransformer pairs a provider ID with the transformer that owns it.
type RegisteredTransformer struct {
	ProviderID  string
	Transformer Transformer
}

// Chain dispatches stored envelopes to the provider that wrote them.
//
// The chain holds an ordered set of registered providers. The first entry is
// the active provider: all new writes go through it. Every registered provider
// remains available for decoding, which is what allows old and new providers
// to coexist while a migration rewrites existing records.
//
// The provider mapping is resolved once at construction into an immutable map,
// so dispatch on the read path is a single map lookup with no locking.
type Chain struct {
	activeID  string
	active    Transformer
	providers map[string]Transformer
}

// NewChain builds a transform chain from the given providers.
//
// At least one provider is required; the first one becomes the active write
// provider. Provider IDs must be unique, non-empty, and must not contain the
// ':' envelope delimiter.
func NewChain(transformers ...RegisteredTransformer) (*Chain, error) {
	if len(transformers) == 0 {
		return nil, fmt.Errorf("%w: chain requires at least one provider", apperrors.ErrInvalidInput)
	}

	providers := make(map[string]Transformer, len(transformers))
	for _, rt := range transformers {
		if rt.ProviderID == "" || strings.Contains(rt.ProviderID, ":") {
			return nil, fmt.Errorf("%w: invalid provider id %q", apperrors.ErrInvalidInput, rt.ProviderID)
		}
		if rt.Transformer == nil {
			return nil, fmt.Errorf("%w: nil transformer for provider %s", apperrors.ErrInvalidInput, rt.ProviderID)
		}
		if _, exists := providers[rt.ProviderID]; exists {
			return nil, fmt.Errorf("%w: duplicate provider id %s", apperrors.ErrConflict, rt.ProviderID)
		}
		providers[rt.ProviderID] = rt.Transformer
	}

	return &Chain{
		activeID:  transformers[0].ProviderID,
		active:    transformers[0].Transformer,
		providers: providers,
	}, nil
}

// ActiveProviderID returns the provider ID used for new writes.
func (c *Chain) ActiveProviderID() string {
	return c.activeID
}

// ToStorage encrypts plaintext through the active provider.
func (c *Chain) ToStorage(plaintext []byte, dataCtx transformDomain.Context) ([]byte, error) {
	return c.active.ToStorage(plaintext, dataCtx)
}

// FromStorage dispatches the stored envelope to its provider by the leading
// provider-id segment.
//
// An unregistered provider ID fails with ErrUnknownProvider before any payload
// parsing happens. The stale flag from the matched provider is combined with a
// provider-level check: an envelope written by a non-active provider is stale
// even when its key is still the provider's active key.
func (c *Chain) FromStorage(
	stored []byte,
	dataCtx transformDomain.Context,
) ([]byte, bool, error) {
	providerID, err := transformDomain.ProviderIDOf(stored)
	if err != nil {
		return nil, false, err
	}

	provider, ok := c.providers[providerID]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", transformDomain.ErrUnknownProvider, providerID)
	}

	plaintext, stale, err := provider.FromStorage(stored, dataCtx)
	if err != nil {
		return nil, false, err
	}

	return plaintext, stale || providerID != c.activeID, nil
}

// Compile-time interface check.
var _ Transformer = (*Chain)(nil)
