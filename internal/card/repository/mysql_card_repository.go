package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cryptoService "github.com/allisson/cardledger/internal/crypto/service"
	"github.com/allisson/cardledger/internal/database"
	apperrors "github.com/allisson/cardledger/internal/errors"
)

const mysqlCardColumns = `c.id, c.number_ciphertext, c.expiration_date_ciphertext, c.status,
	c.cvv_ciphertext, c.balance_ciphertext, c.user_id, u.name, c.created_at, c.updated_at`

const mysqlCardFrom = ` FROM cards c JOIN users u ON u.id = c.user_id`

// MySQLCardRepository implements card persistence for MySQL databases.
type MySQLCardRepository struct {
	db     *sql.DB
	mapper *cardMapper
}

// NewMySQLCardRepository creates a new MySQL card repository.
func NewMySQLCardRepository(
	db *sql.DB,
	cipher cryptoService.FieldCipher,
	indexer cryptoService.BlindIndexer,
) *MySQLCardRepository {
	return &MySQLCardRepository{db: db, mapper: newCardMapper(cipher, indexer)}
}

// Create encrypts and inserts card, assigning its ID and timestamps.
func (m *MySQLCardRepository) Create(ctx context.Context, card *cardDomain.Card) error {
	now := time.Now().UTC()
	card.CreatedAt = now
	card.UpdatedAt = now

	row, err := m.mapper.toRow(card)
	if err != nil {
		return err
	}

	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO cards (number_ciphertext, number_hash, expiration_date_ciphertext, status,
			  cvv_ciphertext, balance_ciphertext, user_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := querier.ExecContext(
		ctx,
		query,
		row.NumberCiphertext,
		row.NumberHash,
		row.ExpirationDateCiphertext,
		row.Status,
		row.CVVCiphertext,
		row.BalanceCiphertext,
		row.UserID,
		row.CreatedAt,
		row.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return cardDomain.ErrCardNumberAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create card")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to read card id")
	}
	card.ID = id

	return nil
}

// Update re-encrypts and stores every column of card.
func (m *MySQLCardRepository) Update(ctx context.Context, card *cardDomain.Card) error {
	card.UpdatedAt = time.Now().UTC()

	row, err := m.mapper.toRow(card)
	if err != nil {
		return err
	}

	querier := database.GetTx(ctx, m.db)

	query := `UPDATE cards
			  SET number_ciphertext = ?, number_hash = ?, expiration_date_ciphertext = ?, status = ?,
			  cvv_ciphertext = ?, balance_ciphertext = ?, user_id = ?, updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		row.NumberCiphertext,
		row.NumberHash,
		row.ExpirationDateCiphertext,
		row.Status,
		row.CVVCiphertext,
		row.BalanceCiphertext,
		row.UserID,
		row.UpdatedAt,
		row.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return cardDomain.ErrCardNumberAlreadyExists
		}
		return apperrors.Wrap(err, "failed to update card")
	}

	return checkAffected(result, "failed to update card")
}

// Get retrieves and decrypts a card by ID.
func (m *MySQLCardRepository) Get(ctx context.Context, cardID int64) (*cardDomain.Card, error) {
	query := `SELECT ` + mysqlCardColumns + mysqlCardFrom + ` WHERE c.id = ?`
	return m.getOne(ctx, query, cardID)
}

// GetForUpdate is Get plus a row lock held until the surrounding transaction ends.
func (m *MySQLCardRepository) GetForUpdate(ctx context.Context, cardID int64) (*cardDomain.Card, error) {
	query := `SELECT ` + mysqlCardColumns + mysqlCardFrom + ` WHERE c.id = ? FOR UPDATE OF c`
	return m.getOne(ctx, query, cardID)
}

func (m *MySQLCardRepository) getOne(
	ctx context.Context,
	query string,
	cardID int64,
) (*cardDomain.Card, error) {
	querier := database.GetTx(ctx, m.db)

	row, err := scanCardRow(querier.QueryRowContext(ctx, query, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cardDomain.ErrCardNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get card")
	}

	return m.mapper.toDomain(row)
}

// Delete removes a card permanently.
func (m *MySQLCardRepository) Delete(ctx context.Context, cardID int64) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, cardID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete card")
	}

	return checkAffected(result, "failed to delete card")
}

// ListAll returns every card, most recent first.
func (m *MySQLCardRepository) ListAll(ctx context.Context) ([]*cardDomain.Card, error) {
	query := `SELECT ` + mysqlCardColumns + mysqlCardFrom + ` ORDER BY c.id DESC`
	return queryCards(ctx, database.GetTx(ctx, m.db), m.mapper, query)
}

// ListByOwner returns all cards of ownerID ordered by ID.
func (m *MySQLCardRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*cardDomain.Card, error) {
	query := `SELECT ` + mysqlCardColumns + mysqlCardFrom + ` WHERE c.user_id = ? ORDER BY c.id ASC`
	return queryCards(ctx, database.GetTx(ctx, m.db), m.mapper, query, ownerID)
}

// ListByOwnerPaged returns one page of ownerID's cards ordered by ID.
func (m *MySQLCardRepository) ListByOwnerPaged(
	ctx context.Context,
	ownerID int64,
	page, size int,
) (*cardDomain.Page, error) {
	querier := database.GetTx(ctx, m.db)

	var total int
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE user_id = ?`, ownerID).Scan(&total)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count cards")
	}
	if !pageInRange(page, size, total) {
		return &cardDomain.Page{Cards: []*cardDomain.Card{}, Page: page, Size: size, TotalItems: total}, nil
	}

	query := `SELECT ` + mysqlCardColumns + mysqlCardFrom +
		` WHERE c.user_id = ? ORDER BY c.id ASC LIMIT ? OFFSET ?`
	cards, err := queryCards(ctx, querier, m.mapper, query, ownerID, size, page*size)
	if err != nil {
		return nil, err
	}

	return &cardDomain.Page{Cards: cards, Page: page, Size: size, TotalItems: total}, nil
}

// ListByOwnerAndNumberContaining returns one page of ownerID's cards whose plaintext
// number contains substring, ordered by ID.
func (m *MySQLCardRepository) ListByOwnerAndNumberContaining(
	ctx context.Context,
	ownerID int64,
	substring string,
	page, size int,
) (*cardDomain.Page, error) {
	cards, err := m.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return pageInMemory(cards, substring, page, size), nil
}

// ReencryptBatch locks up to limit cards with ID greater than afterID and rewrites
// those sealed with a non-active key. It must run inside a transaction.
func (m *MySQLCardRepository) ReencryptBatch(
	ctx context.Context,
	afterID int64,
	limit int,
) (*cardDomain.RotationBatch, error) {
	if !database.InTx(ctx) {
		return nil, errOutsideTransaction
	}

	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlCardColumns + mysqlCardFrom +
		` WHERE c.id > ? ORDER BY c.id ASC LIMIT ? FOR UPDATE OF c`
	rows, err := queryRows(ctx, querier, query, afterID, limit)
	if err != nil {
		return nil, err
	}

	batch := &cardDomain.RotationBatch{LastID: afterID}
	for _, row := range rows {
		batch.Scanned++
		batch.LastID = row.ID

		stale, err := m.mapper.needsRotation(row)
		if err != nil {
			return nil, err
		}
		if !stale {
			continue
		}

		card, err := m.mapper.toDomain(row)
		if err != nil {
			return nil, err
		}
		if err := m.Update(ctx, card); err != nil {
			return nil, err
		}
		batch.Rotated++
	}

	return batch, nil
}
