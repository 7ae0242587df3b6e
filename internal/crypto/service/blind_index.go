package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
)

// hmacBlindIndexer computes HMAC-SHA256 digests keyed by the keyring's index key.
type hmacBlindIndexer struct {
	key []byte
}

// NewBlindIndexer creates a BlindIndexer using keyring's index key.
func NewBlindIndexer(keyring *cryptoDomain.FieldKeyring) BlindIndexer {
	return &hmacBlindIndexer{key: keyring.IndexKey()}
}

// Index returns the lowercase hex HMAC-SHA256 of value.
func (h *hmacBlindIndexer) Index(value string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
