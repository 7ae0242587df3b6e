package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
)

// FieldKeyOptions controls create-field-key.
type FieldKeyOptions struct {
	KeyID        string
	KMSProvider  string
	KMSKeyURI    string
	WithIndexKey bool
}

// RunCreateFieldKey generates a 32-byte card field key and prints the environment
// lines to add it. With a KMS provider and key URI the printed values are KMS
// ciphertexts, matching what LoadFieldKeyring expects when KMS is enabled.
func RunCreateFieldKey(
	ctx context.Context,
	kmsService cryptoDomain.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	opts FieldKeyOptions,
) error {
	if (opts.KMSProvider == "") != (opts.KMSKeyURI == "") {
		return fmt.Errorf("both --kms-provider and --kms-key-uri are required for KMS wrapping")
	}
	if opts.KMSKeyURI != "" {
		if err := cryptoDomain.ValidateKMSProvider(opts.KMSProvider, opts.KMSKeyURI); err != nil {
			return err
		}
	}

	keyID := opts.KeyID
	if keyID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate key id: %w", err)
		}
		keyID = id.String()
	}

	logger.Info("generating field key",
		slog.String("key_id", keyID),
		slog.Bool("kms", opts.KMSKeyURI != ""),
		slog.Bool("with_index_key", opts.WithIndexKey),
	)

	encode := func(_ context.Context, key []byte) (string, error) {
		return base64.StdEncoding.EncodeToString(key), nil
	}
	if opts.KMSKeyURI != "" {
		keeper, err := kmsService.OpenKeeper(ctx, opts.KMSKeyURI)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil {
				logger.Error("failed to close KMS keeper", slog.Any("error", closeErr))
			}
		}()
		encode = func(ctx context.Context, key []byte) (string, error) {
			wrapped, err := keeper.Encrypt(ctx, key)
			if err != nil {
				return "", fmt.Errorf("failed to wrap key with KMS: %w", err)
			}
			return base64.StdEncoding.EncodeToString(wrapped), nil
		}
	}

	fieldKey, err := newKey(ctx, encode)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, "# Append to FIELD_KEYS (comma-separated) and switch ACTIVE_FIELD_KEY_ID")
	_, _ = fmt.Fprintf(writer, "FIELD_KEYS=\"%s:%s\"\n", keyID, fieldKey)
	_, _ = fmt.Fprintf(writer, "ACTIVE_FIELD_KEY_ID=\"%s\"\n", keyID)

	if opts.WithIndexKey {
		indexKey, err := newKey(ctx, encode)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(writer, "# FIELD_INDEX_KEY must never change once cards are stored")
		_, _ = fmt.Fprintf(writer, "FIELD_INDEX_KEY=\"%s\"\n", indexKey)
	}

	if opts.KMSKeyURI != "" {
		_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", opts.KMSProvider)
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", opts.KMSKeyURI)
	}

	return nil
}

func newKey(ctx context.Context, encode func(context.Context, []byte) (string, error)) (string, error) {
	key := make([]byte, 32)
	defer cryptoDomain.Zero(key)

	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return encode(ctx, key)
}
