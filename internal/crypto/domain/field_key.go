package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/allisson/cardledger/internal/config"
)

// Zero overwrites key material in place once it is no longer needed.
func Zero(b []byte) {
	clear(b)
}

// FieldKey is a 32-byte key used to encrypt card fields at rest.
type FieldKey struct {
	ID  string
	Key []byte
}

// KMSKeeper is the subset of a gocloud secrets.Keeper used to wrap and unwrap keys.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService opens keepers for a KMS key URI.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}

// kmsSchemes maps each KMS_PROVIDER to the URI scheme its gocloud driver registers.
var kmsSchemes = map[string]string{
	"localsecrets":  "base64key",
	"gcpkms":        "gcpkms",
	"awskms":        "awskms",
	"azurekeyvault": "azurekeyvault",
	"hashivault":    "hashivault",
}

// ValidateKMSProvider checks that keyURI is addressed to provider, so a key wrapped
// by one KMS is never handed to another.
func ValidateKMSProvider(provider, keyURI string) error {
	scheme, ok := kmsSchemes[provider]
	if !ok {
		return fmt.Errorf("%w: unknown provider %q", ErrKMSProviderMismatch, provider)
	}
	if !strings.HasPrefix(keyURI, scheme+"://") {
		return fmt.Errorf("%w: %s expects %s:// URIs", ErrKMSProviderMismatch, provider, scheme)
	}
	return nil
}

// FieldKeyring holds every configured field key, the one used for new writes
// and the blind index key. It is immutable after construction and safe for
// concurrent use.
type FieldKeyring struct {
	activeID  string
	algorithm Algorithm
	keys      map[string]*FieldKey
	indexKey  []byte
}

// NewFieldKeyring builds a keyring from already decoded keys. Key bytes are copied.
func NewFieldKeyring(
	activeID string,
	algorithm Algorithm,
	keys []*FieldKey,
	indexKey []byte,
) (*FieldKeyring, error) {
	if activeID == "" {
		return nil, ErrActiveFieldKeyIDNotSet
	}
	if len(keys) == 0 {
		return nil, ErrFieldKeysNotSet
	}
	if _, err := ParseAlgorithm(string(algorithm)); err != nil {
		return nil, err
	}
	if len(indexKey) != KeySize {
		return nil, fmt.Errorf("%w: index key must be %d bytes, got %d", ErrInvalidKeySize, KeySize, len(indexKey))
	}

	kr := &FieldKeyring{
		activeID:  activeID,
		algorithm: algorithm,
		keys:      make(map[string]*FieldKey, len(keys)),
		indexKey:  append([]byte(nil), indexKey...),
	}

	for _, k := range keys {
		if k.ID == "" || strings.ContainsRune(k.ID, ':') {
			kr.Close()
			return nil, fmt.Errorf("%w: invalid key id %q", ErrInvalidFieldKeysFormat, k.ID)
		}
		if len(k.Key) != KeySize {
			kr.Close()
			return nil, fmt.Errorf(
				"%w: field key %s must be %d bytes, got %d",
				ErrInvalidKeySize,
				k.ID,
				KeySize,
				len(k.Key),
			)
		}
		if _, dup := kr.keys[k.ID]; dup {
			kr.Close()
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFieldKeyID, k.ID)
		}
		kr.keys[k.ID] = &FieldKey{ID: k.ID, Key: append([]byte(nil), k.Key...)}
	}

	if _, ok := kr.keys[activeID]; !ok {
		kr.Close()
		return nil, fmt.Errorf("%w: ACTIVE_FIELD_KEY_ID=%s", ErrActiveFieldKeyNotFound, activeID)
	}

	return kr, nil
}

// ActiveKeyID returns the id of the key used for new writes.
func (k *FieldKeyring) ActiveKeyID() string {
	return k.activeID
}

// Algorithm returns the AEAD algorithm used for new writes.
func (k *FieldKeyring) Algorithm() Algorithm {
	return k.algorithm
}

// Get returns the key with the given id.
func (k *FieldKeyring) Get(id string) (*FieldKey, bool) {
	key, ok := k.keys[id]
	return key, ok
}

// Active returns the key used for new writes.
func (k *FieldKeyring) Active() *FieldKey {
	return k.keys[k.activeID]
}

// IndexKey returns the key used for the card number blind index.
func (k *FieldKeyring) IndexKey() []byte {
	return k.indexKey
}

// Close zeroes all key material held by the keyring.
func (k *FieldKeyring) Close() {
	for id, key := range k.keys {
		Zero(key.Key)
		delete(k.keys, id)
	}
	Zero(k.indexKey)
	k.activeID = ""
}

// LoadFieldKeyring builds the keyring from configuration.
//
// FIELD_KEYS is a comma-separated list of "id:base64key" entries and FIELD_INDEX_KEY a
// single base64 key. When KMS is configured every value is a base64 KMS ciphertext that
// is unwrapped with the keeper for KMS_KEY_URI; otherwise values are the raw keys.
func LoadFieldKeyring(
	ctx context.Context,
	cfg *config.Config,
	kmsService KMSService,
	logger *slog.Logger,
) (*FieldKeyring, error) {
	if cfg.FieldKeys == "" {
		return nil, ErrFieldKeysNotSet
	}
	if cfg.ActiveFieldKeyID == "" {
		return nil, ErrActiveFieldKeyIDNotSet
	}
	if cfg.FieldIndexKey == "" {
		return nil, ErrFieldIndexKeyNotSet
	}

	algorithm, err := ParseAlgorithm(cfg.FieldEncryptionAlgorithm)
	if err != nil {
		return nil, err
	}

	decode := func(ctx context.Context, encoded []byte) ([]byte, error) { return encoded, nil }
	if cfg.KMSEnabled() {
		if err := ValidateKMSProvider(cfg.KMSProvider, cfg.KMSKeyURI); err != nil {
			return nil, err
		}
		keeper, err := kmsService.OpenKeeper(ctx, cfg.KMSKeyURI)
		if err != nil {
			return nil, err
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil {
				logger.Error("failed to close KMS keeper", slog.Any("error", closeErr))
			}
		}()
		decode = func(ctx context.Context, wrapped []byte) ([]byte, error) {
			defer Zero(wrapped)
			key, err := keeper.Decrypt(ctx, wrapped)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrKMSUnwrapFailed, err)
			}
			return key, nil
		}
		logger.Info("unwrapping field keys with KMS", slog.String("kms_provider", cfg.KMSProvider))
	}

	var keys []*FieldKey
	defer func() {
		for _, k := range keys {
			Zero(k.Key)
		}
	}()

	for part := range strings.SplitSeq(cfg.FieldKeys, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 || p[0] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFieldKeysFormat, part)
		}
		raw, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidFieldKeyBase64, p[0], err)
		}
		key, err := decode(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("field key %s: %w", p[0], err)
		}
		keys = append(keys, &FieldKey{ID: p[0], Key: key})
	}

	rawIndex, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cfg.FieldIndexKey))
	if err != nil {
		return nil, fmt.Errorf("%w for FIELD_INDEX_KEY: %v", ErrInvalidFieldKeyBase64, err)
	}
	indexKey, err := decode(ctx, rawIndex)
	if err != nil {
		return nil, fmt.Errorf("FIELD_INDEX_KEY: %w", err)
	}
	defer Zero(indexKey)

	keyring, err := NewFieldKeyring(cfg.ActiveFieldKeyID, algorithm, keys, indexKey)
	if err != nil {
		return nil, err
	}

	logger.Info("field keyring loaded",
		slog.Int("keys", len(keys)),
		slog.String("active_key_id", keyring.ActiveKeyID()),
		slog.String("algorithm", string(algorithm)),
	)

	return keyring, nil
}
