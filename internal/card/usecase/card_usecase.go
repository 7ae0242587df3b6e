package usecase

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/database"
	apperrors "github.com/allisson/cardledger/internal/errors"
)

var (
	errInvalidPage     = apperrors.WithReason(apperrors.ErrInvalidInput, "page must not be negative")
	errInvalidPageSize = apperrors.WithReason(apperrors.ErrInvalidInput, "page size is out of range")
)

// cardUseCase implements CardUseCase.
type cardUseCase struct {
	txManager   database.TxManager
	cardRepo    CardRepository
	userRepo    UserRepository
	locker      *CardLocker
	pageMaxSize int
	logger      *slog.Logger
}

// NewCardUseCase creates a new CardUseCase.
func NewCardUseCase(
	txManager database.TxManager,
	cardRepo CardRepository,
	userRepo UserRepository,
	locker *CardLocker,
	pageMaxSize int,
	logger *slog.Logger,
) CardUseCase {
	return &cardUseCase{
		txManager:   txManager,
		cardRepo:    cardRepo,
		userRepo:    userRepo,
		locker:      locker,
		pageMaxSize: pageMaxSize,
		logger:      logger,
	}
}

// CreateCard validates the owner and stores a new card.
func (c *cardUseCase) CreateCard(ctx context.Context, input CreateCardInput) (*cardDomain.Card, error) {
	if input.OwnerID == 0 {
		return nil, cardDomain.ErrOwnerRequired
	}
	if input.Balance.IsNegative() {
		return nil, cardDomain.ErrNegativeBalance
	}

	status, err := cardDomain.ParseStatus(input.Status, cardDomain.StatusActive)
	if err != nil {
		return nil, err
	}

	owner, err := c.userRepo.GetByID(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}

	card := &cardDomain.Card{
		Number:         input.Number,
		ExpirationDate: input.ExpirationDate,
		CVV:            input.CVV,
		Status:         status,
		Balance:        input.Balance,
		Owner:          *owner,
	}

	if err := c.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

// UpdateCard replaces the card's details. The balance only changes through transfers.
func (c *cardUseCase) UpdateCard(
	ctx context.Context,
	cardID int64,
	input UpdateCardInput,
) (*cardDomain.Card, error) {
	return c.mutate(ctx, cardID, func(ctx context.Context, card *cardDomain.Card) error {
		status, err := cardDomain.ParseStatus(input.Status, card.Status)
		if err != nil {
			return err
		}

		if input.OwnerID != nil {
			owner, err := c.userRepo.GetByID(ctx, *input.OwnerID)
			if err != nil {
				return err
			}
			card.Owner = *owner
		}

		card.Number = input.Number
		card.CVV = input.CVV
		card.ExpirationDate = input.ExpirationDate
		card.Status = status
		return nil
	})
}

// UpdateStatus sets any known status regardless of the current one.
func (c *cardUseCase) UpdateStatus(
	ctx context.Context,
	cardID int64,
	status string,
) (*cardDomain.Card, error) {
	newStatus, err := cardDomain.ParseStatus(status, "")
	if err != nil {
		return nil, err
	}
	if newStatus == "" {
		return nil, cardDomain.ErrInvalidStatus
	}

	return c.mutate(ctx, cardID, func(_ context.Context, card *cardDomain.Card) error {
		card.Status = newStatus
		return nil
	})
}

// DeleteCard removes the card whatever its status. Deleting a card that does not
// exist returns ErrCardNotFound rather than succeeding silently.
func (c *cardUseCase) DeleteCard(ctx context.Context, cardID int64) error {
	return c.cardRepo.Delete(ctx, cardID)
}

// ListAllCards returns every card, most recent first.
func (c *cardUseCase) ListAllCards(ctx context.Context) ([]*cardDomain.Card, error) {
	return c.cardRepo.ListAll(ctx)
}

// ListCardsByOwner returns all cards of ownerID.
func (c *cardUseCase) ListCardsByOwner(ctx context.Context, ownerID int64) ([]*cardDomain.Card, error) {
	return c.cardRepo.ListByOwner(ctx, ownerID)
}

// ListOwnerCardsPaged returns a page of ownerID's cards, optionally restricted to
// numbers containing search.
func (c *cardUseCase) ListOwnerCardsPaged(
	ctx context.Context,
	ownerID int64,
	search string,
	page, size int,
) (*cardDomain.Page, error) {
	if page < 0 {
		return nil, errInvalidPage
	}
	if size <= 0 || size > c.pageMaxSize {
		return nil, errInvalidPageSize
	}

	if search != "" {
		return c.cardRepo.ListByOwnerAndNumberContaining(ctx, ownerID, search, page, size)
	}
	return c.cardRepo.ListByOwnerPaged(ctx, ownerID, page, size)
}

// GetBalance returns the balance of a card owned by userID.
func (c *cardUseCase) GetBalance(ctx context.Context, cardID, userID int64) (decimal.Decimal, error) {
	card, err := c.getCardAndVerifyOwner(ctx, cardID, userID, c.cardRepo.Get)
	if err != nil {
		return decimal.Zero, err
	}
	return card.Balance, nil
}

// RequestBlock moves an ACTIVE card owned by userID to BLOCK_REQUESTED.
func (c *cardUseCase) RequestBlock(ctx context.Context, cardID, userID int64) (*cardDomain.Card, error) {
	return c.mutateOwned(ctx, cardID, userID, (*cardDomain.Card).RequestBlock)
}

// CancelBlockRequest moves a BLOCK_REQUESTED card owned by userID back to ACTIVE.
func (c *cardUseCase) CancelBlockRequest(
	ctx context.Context,
	cardID, userID int64,
) (*cardDomain.Card, error) {
	return c.mutateOwned(ctx, cardID, userID, (*cardDomain.Card).CancelBlockRequest)
}

// Transfer moves amount between two ACTIVE cards.
//
// Both cards are locked in ascending ID order, in process and with row locks, for
// the whole read-check-write sequence, so concurrent transfers cannot overdraw.
// Source ownership is checked on the locked row.
func (c *cardUseCase) Transfer(ctx context.Context, input TransferInput) error {
	fromCardID, toCardID, amount := input.FromCardID, input.ToCardID, input.Amount
	if fromCardID == toCardID {
		return cardDomain.ErrSameCardTransfer
	}
	if !amount.IsPositive() {
		return cardDomain.ErrNonPositiveAmount
	}

	unlock := c.locker.Lock(fromCardID, toCardID)
	defer unlock()

	err := c.txManager.WithTx(ctx, func(ctx context.Context) error {
		source, dest, err := c.loadTransferPair(ctx, fromCardID, toCardID)
		if err != nil {
			return err
		}
		if input.RequestedBy != nil && !source.OwnedBy(*input.RequestedBy) {
			return cardDomain.ErrCardAccessDenied
		}

		if !source.IsActive() || !dest.IsActive() {
			return cardDomain.ErrCardsNotActive
		}
		if source.Balance.LessThan(amount) {
			return cardDomain.ErrInsufficientFunds
		}

		source.Balance = source.Balance.Sub(amount)
		dest.Balance = dest.Balance.Add(amount)

		if err := c.cardRepo.Update(ctx, source); err != nil {
			return err
		}
		return c.cardRepo.Update(ctx, dest)
	})
	if err != nil {
		return err
	}

	c.logger.Debug("transfer completed",
		slog.Int64("from_card_id", fromCardID),
		slog.Int64("to_card_id", toCardID),
	)
	return nil
}

// RotateFieldKeys walks all cards in ID order, one transaction per batch.
func (c *cardUseCase) RotateFieldKeys(ctx context.Context, batchSize int) (*cardDomain.RotationBatch, error) {
	if batchSize <= 0 {
		return nil, apperrors.WithReason(apperrors.ErrInvalidInput, "batch size must be positive")
	}

	total := &cardDomain.RotationBatch{}
	for {
		var batch *cardDomain.RotationBatch
		err := c.txManager.WithTx(ctx, func(ctx context.Context) error {
			var err error
			batch, err = c.cardRepo.ReencryptBatch(ctx, total.LastID, batchSize)
			return err
		})
		if err != nil {
			return total, err
		}

		total.Scanned += batch.Scanned
		total.Rotated += batch.Rotated
		total.LastID = batch.LastID

		c.logger.Info("field key rotation batch done",
			slog.Int("scanned", batch.Scanned),
			slog.Int("rotated", batch.Rotated),
			slog.Int64("last_card_id", batch.LastID),
		)

		if batch.Scanned < batchSize {
			return total, nil
		}
	}
}

// loadTransferPair row-locks both cards, lowest ID first, and reports a missing
// source before a missing destination.
func (c *cardUseCase) loadTransferPair(
	ctx context.Context,
	fromCardID, toCardID int64,
) (*cardDomain.Card, *cardDomain.Card, error) {
	ids := []int64{fromCardID, toCardID}
	if toCardID < fromCardID {
		ids = []int64{toCardID, fromCardID}
	}

	loaded := make(map[int64]*cardDomain.Card, 2)
	for _, id := range ids {
		card, err := c.cardRepo.GetForUpdate(ctx, id)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		loaded[id] = card
	}

	source, ok := loaded[fromCardID]
	if !ok {
		return nil, nil, cardDomain.ErrSourceCardNotFound
	}
	dest, ok := loaded[toCardID]
	if !ok {
		return nil, nil, cardDomain.ErrDestinationCardNotFound
	}
	return source, dest, nil
}

func (c *cardUseCase) getCardAndVerifyOwner(
	ctx context.Context,
	cardID, userID int64,
	get func(ctx context.Context, cardID int64) (*cardDomain.Card, error),
) (*cardDomain.Card, error) {
	card, err := get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !card.OwnedBy(userID) {
		return nil, cardDomain.ErrCardAccessDenied
	}
	return card, nil
}

// mutate applies fn to a locked copy of the card and stores the result.
func (c *cardUseCase) mutate(
	ctx context.Context,
	cardID int64,
	fn func(ctx context.Context, card *cardDomain.Card) error,
) (*cardDomain.Card, error) {
	unlock := c.locker.Lock(cardID)
	defer unlock()

	var updated *cardDomain.Card
	err := c.txManager.WithTx(ctx, func(ctx context.Context) error {
		card, err := c.cardRepo.GetForUpdate(ctx, cardID)
		if err != nil {
			return err
		}
		if err := fn(ctx, card); err != nil {
			return err
		}
		if err := c.cardRepo.Update(ctx, card); err != nil {
			return err
		}
		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *cardUseCase) mutateOwned(
	ctx context.Context,
	cardID, userID int64,
	transition func(card *cardDomain.Card) error,
) (*cardDomain.Card, error) {
	unlock := c.locker.Lock(cardID)
	defer unlock()

	var updated *cardDomain.Card
	err := c.txManager.WithTx(ctx, func(ctx context.Context) error {
		card, err := c.getCardAndVerifyOwner(ctx, cardID, userID, c.cardRepo.GetForUpdate)
		if err != nil {
			return err
		}
		if err := transition(card); err != nil {
			return err
		}
		if err := c.cardRepo.Update(ctx, card); err != nil {
			return err
		}
		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
