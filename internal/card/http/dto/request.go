// Package dto provides data transfer objects for the card HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	customValidation "github.com/allisson/cardledger/internal/validation"
)

var statusRule = customValidation.OneOf(
	string(cardDomain.StatusActive),
	string(cardDomain.StatusBlocked),
	string(cardDomain.StatusBlockRequested),
)

// CreateCardRequest contains the fields of a new card. UserID is ignored on the
// self-service route, where the caller becomes the owner.
type CreateCardRequest struct {
	UserID         int64           `json:"user_id"`
	Number         string          `json:"number"`
	CVV            string          `json:"cvv"`
	ExpirationDate string          `json:"expiration_date"`
	Status         string          `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
}

// Validate checks if the create card request is valid.
func (r *CreateCardRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Number, validation.Required, customValidation.CardNumber),
		validation.Field(&r.CVV, validation.Required, customValidation.CVV),
		validation.Field(&r.ExpirationDate, validation.Required, customValidation.ExpirationDate),
		validation.Field(&r.Status, statusRule),
		validation.Field(&r.Balance, customValidation.NonNegativeAmount),
	)
}

// UpdateCardRequest contains the editable fields of a card. A null user_id keeps
// the current owner and an empty status keeps the current status.
type UpdateCardRequest struct {
	UserID         *int64 `json:"user_id"`
	Number         string `json:"number"`
	CVV            string `json:"cvv"`
	ExpirationDate string `json:"expiration_date"`
	Status         string `json:"status"`
}

// Validate checks if the update card request is valid.
func (r *UpdateCardRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.NilOrNotEmpty, validation.Min(int64(1))),
		validation.Field(&r.Number, validation.Required, customValidation.CardNumber),
		validation.Field(&r.CVV, validation.Required, customValidation.CVV),
		validation.Field(&r.ExpirationDate, validation.Required, customValidation.ExpirationDate),
		validation.Field(&r.Status, statusRule),
	)
}

// UpdateStatusRequest contains the new status of a card.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Validate checks if the update status request is valid.
func (r *UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.Required, statusRule),
	)
}

// TransferRequest moves Amount from one card to another.
type TransferRequest struct {
	FromCardID int64           `json:"from_card_id"`
	ToCardID   int64           `json:"to_card_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// Validate checks that both card IDs are present. Amount and same-card checks are
// ledger rules and are reported by the use case with their own messages.
func (r *TransferRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FromCardID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.ToCardID, validation.Required, validation.Min(int64(1))),
	)
}
