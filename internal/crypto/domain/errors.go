package domain

import (
	"errors"

	apperrors "github.com/allisson/cardledger/internal/errors"
)

// Cryptographic error definitions.
//
// Key and algorithm errors wrap ErrInvalidInput since they come from operator input.
// ErrDecryptionFailed is deliberately not a client error: stored data that cannot be
// decrypted means corruption or a missing key, and is reported as an internal failure.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = apperrors.Wrap(apperrors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key is not exactly KeySize bytes.
	ErrInvalidKeySize = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a stored value could not be decrypted or parsed.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrFieldKeysNotSet indicates FIELD_KEYS is empty.
	ErrFieldKeysNotSet = errors.New("FIELD_KEYS not set")

	// ErrActiveFieldKeyIDNotSet indicates ACTIVE_FIELD_KEY_ID is empty.
	ErrActiveFieldKeyIDNotSet = errors.New("ACTIVE_FIELD_KEY_ID not set")

	// ErrFieldIndexKeyNotSet indicates FIELD_INDEX_KEY is empty.
	ErrFieldIndexKeyNotSet = errors.New("FIELD_INDEX_KEY not set")

	// ErrInvalidFieldKeysFormat indicates an entry of FIELD_KEYS is not "id:base64key".
	ErrInvalidFieldKeysFormat = errors.New("invalid FIELD_KEYS format")

	// ErrInvalidFieldKeyBase64 indicates a key is not valid standard base64.
	ErrInvalidFieldKeyBase64 = errors.New("invalid field key base64")

	// ErrDuplicateFieldKeyID indicates the same key id appears twice in FIELD_KEYS.
	ErrDuplicateFieldKeyID = errors.New("duplicate field key id")

	// ErrActiveFieldKeyNotFound indicates ACTIVE_FIELD_KEY_ID does not name a configured key.
	ErrActiveFieldKeyNotFound = errors.New("active field key not found")

	// ErrKMSProviderMismatch indicates KMS_KEY_URI does not use the scheme of KMS_PROVIDER.
	ErrKMSProviderMismatch = errors.New("KMS key URI does not match KMS provider")

	// ErrKMSUnwrapFailed indicates a KMS-wrapped key could not be decrypted by the keeper.
	ErrKMSUnwrapFailed = errors.New("failed to unwrap key with KMS")
)
