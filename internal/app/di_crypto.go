package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
	cryptoService "github.com/allisson/cardledger/internal/crypto/service"
)

// KMSService returns the gocloud-backed KMS service.
func (c *Container) KMSService() cryptoDomain.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// FieldKeyring returns the card field keys loaded from configuration, unwrapped
// through KMS when it is configured.
func (c *Container) FieldKeyring() (*cryptoDomain.FieldKeyring, error) {
	var err error
	c.fieldKeyringInit.Do(func() {
		c.fieldKeyring, err = cryptoDomain.LoadFieldKeyring(
			context.Background(),
			c.config,
			c.KMSService(),
			c.Logger(),
		)
		if err != nil {
			err = fmt.Errorf("failed to load field keyring: %w", err)
			c.initErrors["fieldKeyring"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldKeyring"]; exists {
		return nil, storedErr
	}
	return c.fieldKeyring, nil
}

// FieldCipher returns the cipher that seals card fields at rest.
func (c *Container) FieldCipher() (cryptoService.FieldCipher, error) {
	var err error
	c.fieldCipherInit.Do(func() {
		var keyring *cryptoDomain.FieldKeyring
		keyring, err = c.FieldKeyring()
		if err != nil {
			c.initErrors["fieldCipher"] = err
			return
		}
		c.fieldCipher = cryptoService.NewFieldCipher(keyring, c.AEADManager())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldCipher"]; exists {
		return nil, storedErr
	}
	return c.fieldCipher, nil
}

// BlindIndexer returns the card number blind indexer.
func (c *Container) BlindIndexer() (cryptoService.BlindIndexer, error) {
	var err error
	c.blindIndexerInit.Do(func() {
		var keyring *cryptoDomain.FieldKeyring
		keyring, err = c.FieldKeyring()
		if err != nil {
			c.initErrors["blindIndexer"] = err
			return
		}
		c.blindIndexer = cryptoService.NewBlindIndexer(keyring)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["blindIndexer"]; exists {
		return nil, storedErr
	}
	return c.blindIndexer, nil
}
