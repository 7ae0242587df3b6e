package domain

import (
	"github.com/allisson/cardledger/internal/errors"
)

// Card-specific error definitions.
var (
	// ErrCardNotFound indicates the requested card does not exist.
	ErrCardNotFound = errors.Wrap(errors.ErrNotFound, "card not found")

	// ErrCardAccessDenied indicates the caller does not own the card.
	ErrCardAccessDenied = errors.Wrap(errors.ErrForbidden, "card does not belong to the user")

	// ErrCardNumberAlreadyExists indicates another card already uses the number.
	ErrCardNumberAlreadyExists = errors.Wrap(errors.ErrConflict, "card number already exists")

	// ErrInvalidStatus indicates a status outside ACTIVE, BLOCKED and BLOCK_REQUESTED.
	ErrInvalidStatus = errors.WithReason(
		errors.ErrInvalidInput,
		"status must be one of ACTIVE, BLOCKED, BLOCK_REQUESTED",
	)

	// ErrOwnerRequired indicates a card was submitted without an owner.
	ErrOwnerRequired = errors.WithReason(errors.ErrInvalidInput, "User ID must not be null")

	// ErrNegativeBalance indicates a card was submitted with a balance below zero.
	ErrNegativeBalance = errors.WithReason(errors.ErrInvalidInput, "Balance must not be negative")

	// ErrCardNotActive indicates a block request on a card that is not ACTIVE.
	ErrCardNotActive = errors.WithReason(errors.ErrInvalidState, "Card is not in ACTIVE status.")

	// ErrCardNotBlockRequested indicates a cancel on a card that is not BLOCK_REQUESTED.
	ErrCardNotBlockRequested = errors.WithReason(
		errors.ErrInvalidState,
		"Card is not in BLOCK_REQUESTED status.",
	)
)

// Transfer rejections. The messages are returned to the caller verbatim.
var (
	ErrSameCardTransfer        = errors.WithReason(errors.ErrInvalidInput, "Cannot transfer to the same card.")
	ErrNonPositiveAmount       = errors.WithReason(errors.ErrInvalidInput, "Transfer amount must be positive.")
	ErrSourceCardNotFound      = errors.WithReason(errors.ErrInvalidInput, "Source card not found")
	ErrDestinationCardNotFound = errors.WithReason(errors.ErrInvalidInput, "Destination card not found")
	ErrCardsNotActive          = errors.WithReason(errors.ErrInvalidInput, "One or both cards are not active.")
	ErrInsufficientFunds       = errors.WithReason(errors.ErrInvalidInput, "Insufficient funds.")
)
