// Package domain defines the card entity, its status state machine and the
// balance movements allowed by the ledger.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	userDomain "github.com/allisson/cardledger/internal/user/domain"
)

// Status is the lifecycle status of a card.
type Status string

const (
	// StatusActive cards can send and receive transfers.
	StatusActive Status = "ACTIVE"
	// StatusBlocked cards are frozen by an administrator.
	StatusBlocked Status = "BLOCKED"
	// StatusBlockRequested cards await an administrator decision on the owner's block request.
	StatusBlockRequested Status = "BLOCK_REQUESTED"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusBlockRequested:
		return true
	default:
		return false
	}
}

// ParseStatus validates a status string. An empty string yields def.
func ParseStatus(s string, def Status) (Status, error) {
	if s == "" {
		return def, nil
	}
	status := Status(s)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// FormatAmount renders d as a plain decimal string keeping its scale, so "50.00"
// stays "50.00" rather than collapsing to "50".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(max(0, -d.Exponent()))
}

// Card is a funded instrument owned by exactly one user.
//
// Number, ExpirationDate, CVV and Balance are plaintext here; they are only
// ever encrypted by the repository layer.
type Card struct {
	ID             int64
	Number         string
	ExpirationDate string
	CVV            string
	Status         Status
	Balance        decimal.Decimal
	Owner          userDomain.User
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the card may take part in transfers.
func (c *Card) IsActive() bool {
	return c.Status == StatusActive
}

// OwnedBy reports whether userID owns the card.
func (c *Card) OwnedBy(userID int64) bool {
	return c.Owner.ID == userID
}

// RequestBlock moves an ACTIVE card to BLOCK_REQUESTED.
func (c *Card) RequestBlock() error {
	if c.Status != StatusActive {
		return ErrCardNotActive
	}
	c.Status = StatusBlockRequested
	return nil
}

// CancelBlockRequest moves a BLOCK_REQUESTED card back to ACTIVE.
func (c *Card) CancelBlockRequest() error {
	if c.Status != StatusBlockRequested {
		return ErrCardNotBlockRequested
	}
	c.Status = StatusActive
	return nil
}

// Page is one page of a paged card listing. Page numbers start at zero.
type Page struct {
	Cards      []*Card
	Page       int
	Size       int
	TotalItems int
}

// TotalPages returns the number of pages needed to show TotalItems.
func (p *Page) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.TotalItems + p.Size - 1) / p.Size
}

// RotationBatch summarises one batch of field key rotation.
type RotationBatch struct {
	Scanned int
	Rotated int
	LastID  int64
}
