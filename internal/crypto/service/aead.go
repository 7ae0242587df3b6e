package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
)

// sealer adapts a cipher.AEAD to AEAD with a fresh random nonce per Encrypt.
// Both supported algorithms use 12-byte nonces and 16-byte tags.
type sealer struct {
	alg  cryptoDomain.Algorithm
	aead cipher.AEAD
}

// NewAESGCM creates an AES-256-GCM AEAD. The key must be exactly 32 bytes.
func NewAESGCM(key []byte) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &sealer{alg: cryptoDomain.AESGCM, aead: aead}, nil
}

// NewChaCha20Poly1305 creates a ChaCha20-Poly1305 AEAD. The key must be exactly 32 bytes.
func NewChaCha20Poly1305(key []byte) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &sealer{alg: cryptoDomain.ChaCha20, aead: aead}, nil
}

func (s *sealer) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return s.aead.Seal(nil, nonce, plaintext, aad), nonce, nil
}

func (s *sealer) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != s.aead.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size for %s: %d", s.alg, len(nonce))
	}

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt with %s: %w", s.alg, err)
	}
	return plaintext, nil
}

// aeadManager builds the AEAD for a field key's algorithm.
type aeadManager struct{}

// NewAEADManager creates an AEADManager for the algorithms field keys may use.
func NewAEADManager() AEADManager {
	return aeadManager{}
}

func (aeadManager) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	switch alg {
	case cryptoDomain.AESGCM:
		return NewAESGCM(key)
	case cryptoDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
}
