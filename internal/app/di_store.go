package app

import (
	"fmt"
	"sync"

	storeRepository "github.com/allisson/kvcrypt/internal/store/repository"
	storeUsecase "github.com/allisson/kvcrypt/internal/store/usecase"
	transformService "github.com/allisson/kvcrypt/internal/transform/service"
)

// storeComponents holds the lazily initialized store dependencies.
type storeComponents struct {
	recordRepo    storeUsecase.RecordRepository
	recordUseCase storeUsecase.RecordUseCase

	recordRepoInit    sync.Once
	recordUseCaseInit sync.Once
}

// RecordRepository returns the record repository instance.
func (c *Container) RecordRepository() (storeUsecase.RecordRepository, error) {
	var err error
	c.recordRepoInit.Do(func() {
		c.recordRepo, err = c.initRecordRepository()
		if err != nil {
			c.initErrors["recordRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recordRepo"]; exists {
		return nil, storedErr
	}
	return c.recordRepo, nil
}

// RecordUseCase returns the record use case instance.
func (c *Container) RecordUseCase() (storeUsecase.RecordUseCase, error) {
	var err error
	c.recordUseCaseInit.Do(func() {
		c.recordUseCase, err = c.initRecordUseCase()
		if err != nil {
			c.initErrors["recordUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recordUseCase"]; exists {
		return nil, storedErr
	}
	return c.recordUseCase, nil
}

// initRecordRepository creates the record repository instance.
func (c *Container) initRecordRepository() (storeUsecase.RecordRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for record repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return storeRepository.NewMySQLRecordRepository(db), nil
	case "postgres":
		return storeRepository.NewPostgreSQLRecordRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRecordUseCase creates the record use case instance.
func (c *Container) initRecordUseCase() (storeUsecase.RecordUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}

	recordRepo, err := c.RecordRepository()
	if err != nil {
		return nil, err
	}

	transformer, err := c.Transformer()
	if err != nil {
		return nil, err
	}

	// Every encrypted kind shares the configured transform chain. Kinds not
	// listed here fall back to the identity transformer inside the use case.
	transformers := make(map[string]transformService.Transformer)
	for _, kind := range c.config.EncryptedKindList() {
		transformers[kind] = transformer
	}

	useCase := storeUsecase.NewRecordUseCase(
		txManager,
		recordRepo,
		transformers,
		c.config.RewriteRatePerSec,
		c.config.RewriteConcurrency,
		c.Logger(),
	)

	if !c.config.MetricsEnabled {
		return useCase, nil
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return storeUsecase.NewRecordUseCaseWithMetrics(useCase, businessMetrics), nil
}
