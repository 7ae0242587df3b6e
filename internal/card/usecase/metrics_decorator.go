package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/metrics"
)

// cardUseCaseWithMetrics decorates CardUseCase with metrics instrumentation.
type cardUseCaseWithMetrics struct {
	next    CardUseCase
	metrics metrics.BusinessMetrics
}

// NewCardUseCaseWithMetrics wraps a CardUseCase with metrics recording.
func NewCardUseCaseWithMetrics(useCase CardUseCase, m metrics.BusinessMetrics) CardUseCase {
	return &cardUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (c *cardUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.Outcome(err)
	c.metrics.RecordOperation(ctx, "cards", operation, status)
	c.metrics.RecordDuration(ctx, "cards", operation, time.Since(start), status)
}

// CreateCard records metrics for card creation.
func (c *cardUseCaseWithMetrics) CreateCard(
	ctx context.Context,
	input CreateCardInput,
) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.CreateCard(ctx, input)
	c.record(ctx, "card_create", start, err)
	return card, err
}

// UpdateCard records metrics for card updates.
func (c *cardUseCaseWithMetrics) UpdateCard(
	ctx context.Context,
	cardID int64,
	input UpdateCardInput,
) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.UpdateCard(ctx, cardID, input)
	c.record(ctx, "card_update", start, err)
	return card, err
}

// UpdateStatus records metrics for privileged status changes.
func (c *cardUseCaseWithMetrics) UpdateStatus(
	ctx context.Context,
	cardID int64,
	status string,
) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.UpdateStatus(ctx, cardID, status)
	c.record(ctx, "card_update_status", start, err)
	return card, err
}

// DeleteCard records metrics for card deletion.
func (c *cardUseCaseWithMetrics) DeleteCard(ctx context.Context, cardID int64) error {
	start := time.Now()
	err := c.next.DeleteCard(ctx, cardID)
	c.record(ctx, "card_delete", start, err)
	return err
}

// ListAllCards records metrics for the administrative listing.
func (c *cardUseCaseWithMetrics) ListAllCards(ctx context.Context) ([]*cardDomain.Card, error) {
	start := time.Now()
	cards, err := c.next.ListAllCards(ctx)
	c.record(ctx, "card_list_all", start, err)
	return cards, err
}

// ListCardsByOwner records metrics for listing a user's cards.
func (c *cardUseCaseWithMetrics) ListCardsByOwner(
	ctx context.Context,
	ownerID int64,
) ([]*cardDomain.Card, error) {
	start := time.Now()
	cards, err := c.next.ListCardsByOwner(ctx, ownerID)
	c.record(ctx, "card_list_by_owner", start, err)
	return cards, err
}

// ListOwnerCardsPaged records metrics for the paged self-service listing.
func (c *cardUseCaseWithMetrics) ListOwnerCardsPaged(
	ctx context.Context,
	ownerID int64,
	search string,
	page, size int,
) (*cardDomain.Page, error) {
	start := time.Now()
	result, err := c.next.ListOwnerCardsPaged(ctx, ownerID, search, page, size)
	c.record(ctx, "card_list_paged", start, err)
	return result, err
}

// GetBalance records metrics for balance lookups.
func (c *cardUseCaseWithMetrics) GetBalance(
	ctx context.Context,
	cardID, userID int64,
) (decimal.Decimal, error) {
	start := time.Now()
	balance, err := c.next.GetBalance(ctx, cardID, userID)
	c.record(ctx, "card_get_balance", start, err)
	return balance, err
}

// RequestBlock records metrics for block requests.
func (c *cardUseCaseWithMetrics) RequestBlock(
	ctx context.Context,
	cardID, userID int64,
) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.RequestBlock(ctx, cardID, userID)
	c.record(ctx, "card_request_block", start, err)
	return card, err
}

// CancelBlockRequest records metrics for block request cancellations.
func (c *cardUseCaseWithMetrics) CancelBlockRequest(
	ctx context.Context,
	cardID, userID int64,
) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.CancelBlockRequest(ctx, cardID, userID)
	c.record(ctx, "card_cancel_block_request", start, err)
	return card, err
}

// Transfer records metrics for balance transfers.
func (c *cardUseCaseWithMetrics) Transfer(ctx context.Context, input TransferInput) error {
	start := time.Now()
	err := c.next.Transfer(ctx, input)
	c.record(ctx, "card_transfer", start, err)
	if err == nil {
		c.metrics.RecordTransferVolume(ctx, input.Amount)
	}
	return err
}

// RotateFieldKeys records metrics for field key rotation runs.
func (c *cardUseCaseWithMetrics) RotateFieldKeys(
	ctx context.Context,
	batchSize int,
) (*cardDomain.RotationBatch, error) {
	start := time.Now()
	result, err := c.next.RotateFieldKeys(ctx, batchSize)
	c.record(ctx, "card_rotate_field_keys", start, err)
	return result, err
}
