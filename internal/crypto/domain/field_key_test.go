package domain

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/cardledger/internal/config"
)

var wrapPrefix = []byte("wrapped:")

type fakeKeeper struct {
	closed bool
}

func (f *fakeKeeper) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	return append(append([]byte(nil), wrapPrefix...), plaintext...), nil
}

func (f *fakeKeeper) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if !bytes.HasPrefix(ciphertext, wrapPrefix) {
		return nil, errors.New("bad ciphertext")
	}
	return append([]byte(nil), ciphertext[len(wrapPrefix):]...), nil
}

func (f *fakeKeeper) Close() error {
	f.closed = true
	return nil
}

type fakeKMSService struct {
	keeper  *fakeKeeper
	openErr error
	uri     string
}

func (f *fakeKMSService) OpenKeeper(_ context.Context, keyURI string) (KMSKeeper, error) {
	f.uri = keyURI
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.keeper, nil
}

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeySize)
}

func encodedKey(b byte) string {
	return base64.StdEncoding.EncodeToString(testKey(b))
}

func wrappedKey(b byte) string {
	return base64.StdEncoding.EncodeToString(append(append([]byte(nil), wrapPrefix...), testKey(b)...))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewFieldKeyring(t *testing.T) {
	t.Run("valid keyring", func(t *testing.T) {
		keys := []*FieldKey{{ID: "k1", Key: testKey(1)}, {ID: "k2", Key: testKey(2)}}
		kr, err := NewFieldKeyring("k2", AESGCM, keys, testKey(9))
		require.NoError(t, err)

		assert.Equal(t, "k2", kr.ActiveKeyID())
		assert.Equal(t, AESGCM, kr.Algorithm())
		assert.Equal(t, testKey(2), kr.Active().Key)
		assert.Equal(t, testKey(9), kr.IndexKey())

		k1, ok := kr.Get("k1")
		require.True(t, ok)
		assert.Equal(t, testKey(1), k1.Key)

		_, ok = kr.Get("missing")
		assert.False(t, ok)
	})

	t.Run("copies key material", func(t *testing.T) {
		raw := testKey(1)
		kr, err := NewFieldKeyring("k1", AESGCM, []*FieldKey{{ID: "k1", Key: raw}}, testKey(9))
		require.NoError(t, err)

		Zero(raw)
		assert.Equal(t, testKey(1), kr.Active().Key)
	})

	tests := []struct {
		name     string
		activeID string
		alg      Algorithm
		keys     []*FieldKey
		indexKey []byte
		wantErr  error
	}{
		{"empty active id", "", AESGCM, []*FieldKey{{ID: "k1", Key: testKey(1)}}, testKey(9), ErrActiveFieldKeyIDNotSet},
		{"no keys", "k1", AESGCM, nil, testKey(9), ErrFieldKeysNotSet},
		{"bad algorithm", "k1", Algorithm("rc4"), []*FieldKey{{ID: "k1", Key: testKey(1)}}, testKey(9), ErrUnsupportedAlgorithm},
		{"short index key", "k1", AESGCM, []*FieldKey{{ID: "k1", Key: testKey(1)}}, []byte("short"), ErrInvalidKeySize},
		{"short field key", "k1", AESGCM, []*FieldKey{{ID: "k1", Key: []byte("short")}}, testKey(9), ErrInvalidKeySize},
		{"colon in id", "a:b", AESGCM, []*FieldKey{{ID: "a:b", Key: testKey(1)}}, testKey(9), ErrInvalidFieldKeysFormat},
		{
			"duplicate id",
			"k1",
			ChaCha20,
			[]*FieldKey{{ID: "k1", Key: testKey(1)}, {ID: "k1", Key: testKey(2)}},
			testKey(9),
			ErrDuplicateFieldKeyID,
		},
		{"active missing", "k3", AESGCM, []*FieldKey{{ID: "k1", Key: testKey(1)}}, testKey(9), ErrActiveFieldKeyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kr, err := NewFieldKeyring(tt.activeID, tt.alg, tt.keys, tt.indexKey)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, kr)
		})
	}
}

func TestFieldKeyring_Close(t *testing.T) {
	kr, err := NewFieldKeyring("k1", AESGCM, []*FieldKey{{ID: "k1", Key: testKey(1)}}, testKey(9))
	require.NoError(t, err)

	key := kr.Active().Key
	index := kr.IndexKey()
	kr.Close()

	assert.Equal(t, make([]byte, KeySize), key)
	assert.Equal(t, make([]byte, KeySize), index)
	assert.Empty(t, kr.ActiveKeyID())
	_, ok := kr.Get("k1")
	assert.False(t, ok)
}

func TestLoadFieldKeyring(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	baseConfig := func() *config.Config {
		return &config.Config{
			FieldKeys:                "k1:" + encodedKey(1) + ", k2:" + encodedKey(2),
			ActiveFieldKeyID:         "k2",
			FieldIndexKey:            encodedKey(9),
			FieldEncryptionAlgorithm: "aes-gcm",
		}
	}

	t.Run("plain keys", func(t *testing.T) {
		kr, err := LoadFieldKeyring(ctx, baseConfig(), nil, logger)
		require.NoError(t, err)

		assert.Equal(t, "k2", kr.ActiveKeyID())
		k1, ok := kr.Get("k1")
		require.True(t, ok)
		assert.Equal(t, testKey(1), k1.Key)
		assert.Equal(t, testKey(9), kr.IndexKey())
	})

	t.Run("kms wrapped keys", func(t *testing.T) {
		cfg := baseConfig()
		cfg.FieldKeys = "k1:" + wrappedKey(1)
		cfg.ActiveFieldKeyID = "k1"
		cfg.FieldIndexKey = wrappedKey(9)
		cfg.KMSProvider = "localsecrets"
		cfg.KMSKeyURI = "base64key://test"

		kms := &fakeKMSService{keeper: &fakeKeeper{}}
		kr, err := LoadFieldKeyring(ctx, cfg, kms, logger)
		require.NoError(t, err)

		assert.Equal(t, "base64key://test", kms.uri)
		assert.True(t, kms.keeper.closed)
		assert.Equal(t, testKey(1), kr.Active().Key)
		assert.Equal(t, testKey(9), kr.IndexKey())
	})

	t.Run("kms unwrap failure", func(t *testing.T) {
		cfg := baseConfig()
		cfg.KMSProvider = "localsecrets"
		cfg.KMSKeyURI = "base64key://test"

		_, err := LoadFieldKeyring(ctx, cfg, &fakeKMSService{keeper: &fakeKeeper{}}, logger)
		assert.ErrorIs(t, err, ErrKMSUnwrapFailed)
	})

	t.Run("kms open failure", func(t *testing.T) {
		cfg := baseConfig()
		cfg.KMSProvider = "localsecrets"
		cfg.KMSKeyURI = "base64key://test"
		openErr := errors.New("boom")

		_, err := LoadFieldKeyring(ctx, cfg, &fakeKMSService{openErr: openErr}, logger)
		assert.ErrorIs(t, err, openErr)
	})

	t.Run("kms provider mismatch", func(t *testing.T) {
		cfg := baseConfig()
		cfg.KMSProvider = "gcpkms"
		cfg.KMSKeyURI = "awskms://alias/cards"

		_, err := LoadFieldKeyring(ctx, cfg, &fakeKMSService{keeper: &fakeKeeper{}}, logger)
		assert.ErrorIs(t, err, ErrKMSProviderMismatch)
	})

	errorCases := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr error
	}{
		{"missing field keys", func(cfg *config.Config) { cfg.FieldKeys = "" }, ErrFieldKeysNotSet},
		{"missing active id", func(cfg *config.Config) { cfg.ActiveFieldKeyID = "" }, ErrActiveFieldKeyIDNotSet},
		{"missing index key", func(cfg *config.Config) { cfg.FieldIndexKey = "" }, ErrFieldIndexKeyNotSet},
		{"bad algorithm", func(cfg *config.Config) { cfg.FieldEncryptionAlgorithm = "xor" }, ErrUnsupportedAlgorithm},
		{"entry without colon", func(cfg *config.Config) { cfg.FieldKeys = "k1" }, ErrInvalidFieldKeysFormat},
		{"bad base64", func(cfg *config.Config) { cfg.FieldKeys = "k2:%%%" }, ErrInvalidFieldKeyBase64},
		{"bad index base64", func(cfg *config.Config) { cfg.FieldIndexKey = "%%%" }, ErrInvalidFieldKeyBase64},
		{"wrong key size", func(cfg *config.Config) { cfg.FieldKeys = "k2:c2hvcnQ=" }, ErrInvalidKeySize},
		{"unknown active id", func(cfg *config.Config) { cfg.ActiveFieldKeyID = "k9" }, ErrActiveFieldKeyNotFound},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(cfg)

			kr, err := LoadFieldKeyring(ctx, cfg, nil, logger)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, kr)
		})
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
	assert.NotPanics(t, func() { Zero(nil) })
}

func TestValidateKMSProvider(t *testing.T) {
	tests := []struct {
		provider string
		uri      string
		wantErr  bool
	}{
		{provider: "localsecrets", uri: "base64key://abc"},
		{provider: "gcpkms", uri: "gcpkms://projects/p/locations/l/keyRings/r/cryptoKeys/k"},
		{provider: "awskms", uri: "awskms://alias/cards?region=us-east-1"},
		{provider: "azurekeyvault", uri: "azurekeyvault://vault.vault.azure.net/keys/cards"},
		{provider: "hashivault", uri: "hashivault://cards"},
		{provider: "gcpkms", uri: "base64key://abc", wantErr: true},
		{provider: "localsecrets", uri: "base64key:abc", wantErr: true},
		{provider: "vault", uri: "hashivault://cards", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider+" "+tt.uri, func(t *testing.T) {
			err := ValidateKMSProvider(tt.provider, tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrKMSProviderMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}
