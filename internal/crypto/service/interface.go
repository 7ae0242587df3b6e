// Package service provides the cryptographic services behind card field encryption:
// AEAD ciphers, the field cipher that produces the stored envelope, the blind index
// used for number uniqueness and KMS access for key wrapping.
package service

import (
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// FieldCipher encrypts and decrypts single string attributes.
//
// A nil input yields a nil output with no error. Encrypting the same value twice
// yields different ciphertexts; both decrypt to the original value.
type FieldCipher interface {
	Encrypt(plaintext *string) (*string, error)
	Decrypt(ciphertext *string) (*string, error)

	// NeedsRotation reports whether ciphertext was produced with a key or algorithm
	// other than the active ones.
	NeedsRotation(ciphertext string) (bool, error)
}

// BlindIndexer computes a deterministic keyed digest used to look up and enforce
// uniqueness of encrypted values without decrypting them.
type BlindIndexer interface {
	Index(value string) string
}
