package service

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
)

// envelopeSeparator splits the stored form "<keyID>:<algorithm>:<base64(nonce||ciphertext)>".
const envelopeSeparator = ":"

type cipherCacheKey struct {
	keyID string
	alg   cryptoDomain.Algorithm
}

// fieldCipher implements FieldCipher on top of a FieldKeyring.
//
// New values are sealed with the active key and algorithm. Stored values name the key
// and algorithm they were sealed with, so values written before a rotation remain
// readable as long as their key stays in the keyring.
type fieldCipher struct {
	keyring     *cryptoDomain.FieldKeyring
	aeadManager AEADManager

	mu      sync.RWMutex
	ciphers map[cipherCacheKey]AEAD
}

// NewFieldCipher creates a FieldCipher backed by keyring.
func NewFieldCipher(keyring *cryptoDomain.FieldKeyring, aeadManager AEADManager) FieldCipher {
	return &fieldCipher{
		keyring:     keyring,
		aeadManager: aeadManager,
		ciphers:     make(map[cipherCacheKey]AEAD),
	}
}

func (f *fieldCipher) Encrypt(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}

	keyID := f.keyring.ActiveKeyID()
	alg := f.keyring.Algorithm()

	aead, err := f.cipherFor(keyID, alg)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := aead.Encrypt([]byte(*plaintext), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt field: %w", err)
	}

	payload := make([]byte, 0, len(nonce)+len(ciphertext))
	payload = append(payload, nonce...)
	payload = append(payload, ciphertext...)

	encoded := strings.Join(
		[]string{keyID, string(alg), base64.StdEncoding.EncodeToString(payload)},
		envelopeSeparator,
	)
	return &encoded, nil
}

func (f *fieldCipher) Decrypt(ciphertext *string) (*string, error) {
	if ciphertext == nil {
		return nil, nil
	}

	keyID, alg, payload, err := parseEnvelope(*ciphertext)
	if err != nil {
		return nil, err
	}

	aead, err := f.cipherFor(keyID, alg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrDecryptionFailed, err)
	}

	// Both supported algorithms use a 12-byte nonce.
	const nonceSize = 12
	if len(payload) < nonceSize {
		return nil, fmt.Errorf("%w: payload too short", cryptoDomain.ErrDecryptionFailed)
	}

	plaintext, err := aead.Decrypt(payload[nonceSize:], payload[:nonceSize], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrDecryptionFailed, err)
	}

	decoded := string(plaintext)
	return &decoded, nil
}

func (f *fieldCipher) NeedsRotation(ciphertext string) (bool, error) {
	keyID, alg, _, err := parseEnvelope(ciphertext)
	if err != nil {
		return false, err
	}
	return keyID != f.keyring.ActiveKeyID() || alg != f.keyring.Algorithm(), nil
}

func (f *fieldCipher) cipherFor(keyID string, alg cryptoDomain.Algorithm) (AEAD, error) {
	cacheKey := cipherCacheKey{keyID: keyID, alg: alg}

	f.mu.RLock()
	aead, ok := f.ciphers[cacheKey]
	f.mu.RUnlock()
	if ok {
		return aead, nil
	}

	key, ok := f.keyring.Get(keyID)
	if !ok {
		return nil, fmt.Errorf("unknown field key %q", keyID)
	}

	aead, err := f.aeadManager.CreateCipher(key.Key, alg)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.ciphers[cacheKey] = aead
	f.mu.Unlock()

	return aead, nil
}

func parseEnvelope(s string) (string, cryptoDomain.Algorithm, []byte, error) {
	parts := strings.SplitN(s, envelopeSeparator, 3)
	if len(parts) != 3 || parts[0] == "" {
		return "", "", nil, fmt.Errorf("%w: malformed envelope", cryptoDomain.ErrDecryptionFailed)
	}

	alg, err := cryptoDomain.ParseAlgorithm(parts[1])
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", cryptoDomain.ErrDecryptionFailed, err)
	}

	payload, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: invalid base64", cryptoDomain.ErrDecryptionFailed)
	}

	return parts[0], alg, payload, nil
}
