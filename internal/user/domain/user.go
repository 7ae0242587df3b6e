// Package domain defines the card owner entity as seen by the card ledger.
package domain

import (
	"time"

	"github.com/allisson/cardledger/internal/errors"
)

// User is a card owner. Registration and role management happen outside this service;
// the ledger only resolves owners by id and shows their display name.
type User struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")
)
