package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"

	// Drivers for every provider accepted by cryptoDomain.ValidateKMSProvider.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

type kmsService struct{}

// NewKMSService returns a KMSService backed by gocloud.dev/secrets keepers.
func NewKMSService() cryptoDomain.KMSService {
	return kmsService{}
}

// OpenKeeper opens the keeper wrapping field keys. The caller closes it once the
// keys are wrapped or unwrapped; keepers are not held for the process lifetime.
func (kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}
