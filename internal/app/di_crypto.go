package app

import (
	"context"
	"fmt"
	"sync"

	cryptoDomain "github.com/allisson/kvcrypt/internal/crypto/domain"
	cryptoService "github.com/allisson/kvcrypt/internal/crypto/service"
)

// cryptoComponents holds the lazily initialized cryptographic dependencies.
type cryptoComponents struct {
	keyring     *cryptoDomain.Keyring
	aeadManager cryptoService.AEADManager
	kmsService  cryptoService.KMSService

	keyringInit     sync.Once
	aeadManagerInit sync.Once
	kmsServiceInit  sync.Once
}

// Keyring returns the keyring loaded from environment variables.
//
// When KMS_KEY_URI is configured the key entries are treated as KMS-wrapped
// ciphertexts and unwrapped through the keeper; otherwise they are plain
// base64-encoded key material.
func (c *Container) Keyring() (*cryptoDomain.Keyring, error) {
	var err error
	c.keyringInit.Do(func() {
		c.keyring, err = c.initKeyring()
		if err != nil {
			c.initErrors["keyring"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyring"]; exists {
		return nil, storedErr
	}
	return c.keyring, nil
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// initKeyring loads the keyring from environment variables.
func (c *Container) initKeyring() (*cryptoDomain.Keyring, error) {
	if c.config.KMSKeyURI == "" {
		keyring, err := cryptoDomain.LoadKeyringFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load keyring: %w", err)
		}
		return keyring, nil
	}

	ctx := context.Background()

	keeper, err := c.KMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() { _ = keeper.Close() }()

	keyring, err := cryptoDomain.UnwrapKeyringFromEnv(ctx, keeper)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap keyring: %w", err)
	}

	c.Logger().Info(
		"keyring unwrapped through KMS",
		"key_count", len(keyring.IDs()),
		"active_key_id", keyring.ActiveKeyID(),
	)

	return keyring, nil
}
