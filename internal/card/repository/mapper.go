// Package repository persists cards for PostgreSQL and MySQL. Sensitive columns are
// encrypted on every write and decrypted on every read, so callers only ever see
// plaintext cards.
package repository

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
	cryptoService "github.com/allisson/cardledger/internal/crypto/service"
)

// cardRow is the stored form of a card.
type cardRow struct {
	ID                       int64
	NumberCiphertext         string
	NumberHash               string
	ExpirationDateCiphertext string
	Status                   string
	CVVCiphertext            string
	BalanceCiphertext        string
	UserID                   int64
	UserName                 string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// cardMapper converts between plaintext cards and their encrypted rows.
type cardMapper struct {
	cipher  cryptoService.FieldCipher
	indexer cryptoService.BlindIndexer
}

func newCardMapper(cipher cryptoService.FieldCipher, indexer cryptoService.BlindIndexer) *cardMapper {
	return &cardMapper{cipher: cipher, indexer: indexer}
}

func (m *cardMapper) toRow(card *cardDomain.Card) (*cardRow, error) {
	balance := cardDomain.FormatAmount(card.Balance)

	values := []*string{&card.Number, &card.ExpirationDate, &card.CVV, &balance}
	encrypted := make([]string, len(values))
	for i, v := range values {
		ciphertext, err := m.cipher.Encrypt(v)
		if err != nil {
			return nil, err
		}
		encrypted[i] = *ciphertext
	}

	return &cardRow{
		ID:                       card.ID,
		NumberCiphertext:         encrypted[0],
		NumberHash:               m.indexer.Index(card.Number),
		ExpirationDateCiphertext: encrypted[1],
		Status:                   string(card.Status),
		CVVCiphertext:            encrypted[2],
		BalanceCiphertext:        encrypted[3],
		UserID:                   card.Owner.ID,
		UserName:                 card.Owner.Name,
		CreatedAt:                card.CreatedAt,
		UpdatedAt:                card.UpdatedAt,
	}, nil
}

func (m *cardMapper) toDomain(row *cardRow) (*cardDomain.Card, error) {
	number, err := m.decrypt(row.ID, "number", row.NumberCiphertext)
	if err != nil {
		return nil, err
	}
	expirationDate, err := m.decrypt(row.ID, "expiration_date", row.ExpirationDateCiphertext)
	if err != nil {
		return nil, err
	}
	cvv, err := m.decrypt(row.ID, "cvv", row.CVVCiphertext)
	if err != nil {
		return nil, err
	}
	rawBalance, err := m.decrypt(row.ID, "balance", row.BalanceCiphertext)
	if err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(rawBalance)
	if err != nil {
		return nil, fmt.Errorf("%w: card %d balance is not a decimal", cryptoDomain.ErrDecryptionFailed, row.ID)
	}

	card := &cardDomain.Card{
		ID:             row.ID,
		Number:         number,
		ExpirationDate: expirationDate,
		CVV:            cvv,
		Status:         cardDomain.Status(row.Status),
		Balance:        balance,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	card.Owner.ID = row.UserID
	card.Owner.Name = row.UserName

	return card, nil
}

func (m *cardMapper) decrypt(cardID int64, column, ciphertext string) (string, error) {
	plaintext, err := m.cipher.Decrypt(&ciphertext)
	if err != nil {
		return "", fmt.Errorf("card %d %s: %w", cardID, column, err)
	}
	return *plaintext, nil
}

// needsRotation reports whether any encrypted column of row was sealed with a
// non-active key or algorithm.
func (m *cardMapper) needsRotation(row *cardRow) (bool, error) {
	for _, ciphertext := range []string{
		row.NumberCiphertext,
		row.ExpirationDateCiphertext,
		row.CVVCiphertext,
		row.BalanceCiphertext,
	} {
		stale, err := m.cipher.NeedsRotation(ciphertext)
		if err != nil {
			return false, fmt.Errorf("card %d: %w", row.ID, err)
		}
		if stale {
			return true, nil
		}
	}
	return false, nil
}
