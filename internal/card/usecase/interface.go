// Package usecase implements the card ledger: the card status state machine, the
// balance transfer protocol and the owner checks guarding self-service operations.
package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	userDomain "github.com/allisson/cardledger/internal/user/domain"
)

// CardRepository defines the interface for card persistence operations.
// Implementations encrypt and decrypt sensitive fields transparently.
type CardRepository interface {
	Create(ctx context.Context, card *cardDomain.Card) error
	Update(ctx context.Context, card *cardDomain.Card) error
	Get(ctx context.Context, cardID int64) (*cardDomain.Card, error)
	GetForUpdate(ctx context.Context, cardID int64) (*cardDomain.Card, error)
	Delete(ctx context.Context, cardID int64) error
	ListAll(ctx context.Context) ([]*cardDomain.Card, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*cardDomain.Card, error)
	ListByOwnerPaged(ctx context.Context, ownerID int64, page, size int) (*cardDomain.Page, error)
	ListByOwnerAndNumberContaining(
		ctx context.Context,
		ownerID int64,
		substring string,
		page, size int,
	) (*cardDomain.Page, error)
	ReencryptBatch(ctx context.Context, afterID int64, limit int) (*cardDomain.RotationBatch, error)
}

// UserRepository resolves card owners.
type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*userDomain.User, error)
}

// CreateCardInput holds the fields of a new card. An empty Status means ACTIVE.
type CreateCardInput struct {
	OwnerID        int64
	Number         string
	CVV            string
	ExpirationDate string
	Status         string
	Balance        decimal.Decimal
}

// UpdateCardInput holds the editable fields of a card. A nil OwnerID keeps the owner
// and an empty Status keeps the status.
type UpdateCardInput struct {
	Number         string
	CVV            string
	ExpirationDate string
	Status         string
	OwnerID        *int64
}

// TransferInput describes a balance transfer. A nil RequestedBy is the privileged
// path; otherwise the source card must belong to that user.
type TransferInput struct {
	FromCardID  int64
	ToCardID    int64
	Amount      decimal.Decimal
	RequestedBy *int64
}

// CardUseCase defines the card ledger operations.
type CardUseCase interface {
	CreateCard(ctx context.Context, input CreateCardInput) (*cardDomain.Card, error)
	UpdateCard(ctx context.Context, cardID int64, input UpdateCardInput) (*cardDomain.Card, error)
	// UpdateStatus is the privileged status change; any known status is accepted from any state.
	UpdateStatus(ctx context.Context, cardID int64, status string) (*cardDomain.Card, error)
	// DeleteCard removes the card from any state. A missing card is ErrCardNotFound.
	DeleteCard(ctx context.Context, cardID int64) error
	ListAllCards(ctx context.Context) ([]*cardDomain.Card, error)
	ListCardsByOwner(ctx context.Context, ownerID int64) ([]*cardDomain.Card, error)
	ListOwnerCardsPaged(
		ctx context.Context,
		ownerID int64,
		search string,
		page, size int,
	) (*cardDomain.Page, error)
	GetBalance(ctx context.Context, cardID, userID int64) (decimal.Decimal, error)
	RequestBlock(ctx context.Context, cardID, userID int64) (*cardDomain.Card, error)
	CancelBlockRequest(ctx context.Context, cardID, userID int64) (*cardDomain.Card, error)
	// Transfer moves amount from one ACTIVE card to another. Either both balances
	// change or neither does.
	Transfer(ctx context.Context, input TransferInput) error
	// RotateFieldKeys re-encrypts every card still sealed with a non-active field key.
	RotateFieldKeys(ctx context.Context, batchSize int) (*cardDomain.RotationBatch, error)
}
