package app

import (
	"fmt"
	"sync"

	cryptoDomain "github.com/allisson/kvcrypt/internal/crypto/domain"
	transformService "github.com/allisson/kvcrypt/internal/transform/service"
)

// transformComponents holds the lazily initialized transform dependencies.
type transformComponents struct {
	transformer transformService.Transformer

	transformerInit sync.Once
}

// Transformer returns the transform chain used for encrypted kinds.
//
// The chain carries a single AEAD provider built from the configured algorithm
// and provider ID. When metrics are enabled the chain is wrapped with the
// metrics decorator.
func (c *Container) Transformer() (transformService.Transformer, error) {
	var err error
	c.transformerInit.Do(func() {
		c.transformer, err = c.initTransformer()
		if err != nil {
			c.initErrors["transformer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["transformer"]; exists {
		return nil, storedErr
	}
	return c.transformer, nil
}

// initTransformer builds the transform chain from configuration.
func (c *Container) initTransformer() (transformService.Transformer, error) {
	keyring, err := c.Keyring()
	if err != nil {
		return nil, err
	}

	aead, err := transformService.NewAEADTransformer(
		c.config.EncryptionProviderID,
		keyring,
		c.AEADManager(),
		cryptoDomain.Algorithm(c.config.EncryptionAlgorithm),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create aead transformer: %w", err)
	}

	chain, err := transformService.NewChain(transformService.RegisteredTransformer{
		ProviderID:  aead.ProviderID(),
		Transformer: aead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transform chain: %w", err)
	}

	if !c.config.MetricsEnabled {
		return chain, nil
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return transformService.NewTransformerWithMetrics(chain, businessMetrics), nil
}
