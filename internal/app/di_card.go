package app

import (
	"fmt"

	cardHTTP "github.com/allisson/cardledger/internal/card/http"
	cardRepository "github.com/allisson/cardledger/internal/card/repository"
	cardUseCase "github.com/allisson/cardledger/internal/card/usecase"
	"github.com/allisson/cardledger/internal/database"
	userRepository "github.com/allisson/cardledger/internal/user/repository"
)

// UserRepository returns the owner lookup for the configured driver.
func (c *Container) UserRepository() (cardUseCase.UserRepository, error) {
	var err error
	c.userRepoInit.Do(func() {
		c.userRepo, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// CardRepository returns the encrypted card store for the configured driver.
func (c *Container) CardRepository() (cardUseCase.CardRepository, error) {
	var err error
	c.cardRepoInit.Do(func() {
		c.cardRepo, err = c.initCardRepository()
		if err != nil {
			c.initErrors["cardRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cardRepo"]; exists {
		return nil, storedErr
	}
	return c.cardRepo, nil
}

// CardLocker returns the process-wide per-card lock table.
func (c *Container) CardLocker() *cardUseCase.CardLocker {
	c.cardLockerInit.Do(func() {
		c.cardLocker = cardUseCase.NewCardLocker()
	})
	return c.cardLocker
}

// CardUseCase returns the card ledger, wrapped with metrics.
func (c *Container) CardUseCase() (cardUseCase.CardUseCase, error) {
	var err error
	c.cardUseCaseInit.Do(func() {
		c.cardUseCase, err = c.initCardUseCase()
		if err != nil {
			c.initErrors["cardUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cardUseCase"]; exists {
		return nil, storedErr
	}
	return c.cardUseCase, nil
}

// CardHandler returns a new card HTTP handler.
func (c *Container) CardHandler() (*cardHTTP.CardHandler, error) {
	useCase, err := c.CardUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get card use case for card handler: %w", err)
	}
	return cardHTTP.NewCardHandler(useCase, c.config.CardPageMaxSize, c.Logger()), nil
}

func (c *Container) initUserRepository() (cardUseCase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverMySQL:
		return userRepository.NewMySQLUserRepository(db), nil
	case database.DriverPostgres:
		return userRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, database.ValidateDriver(c.config.DBDriver)
	}
}

func (c *Container) initCardRepository() (cardUseCase.CardRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for card repository: %w", err)
	}

	cipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for card repository: %w", err)
	}

	indexer, err := c.BlindIndexer()
	if err != nil {
		return nil, fmt.Errorf("failed to get blind indexer for card repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverMySQL:
		return cardRepository.NewMySQLCardRepository(db, cipher, indexer), nil
	case database.DriverPostgres:
		return cardRepository.NewPostgreSQLCardRepository(db, cipher, indexer), nil
	default:
		return nil, database.ValidateDriver(c.config.DBDriver)
	}
}

func (c *Container) initCardUseCase() (cardUseCase.CardUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for card use case: %w", err)
	}

	cardRepo, err := c.CardRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get card repository for card use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for card use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for card use case: %w", err)
	}

	useCase := cardUseCase.NewCardUseCase(
		txManager,
		cardRepo,
		userRepo,
		c.CardLocker(),
		c.config.CardPageMaxSize,
		c.Logger(),
	)

	return cardUseCase.NewCardUseCaseWithMetrics(useCase, businessMetrics), nil
}
