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

const postgresCardColumns = `c.id, c.number_ciphertext, c.expiration_date_ciphertext, c.status,
	c.cvv_ciphertext, c.balance_ciphertext, c.user_id, u.name, c.created_at, c.updated_at`

const postgresCardFrom = ` FROM cards c JOIN users u ON u.id = c.user_id`

// PostgreSQLCardRepository implements card persistence for PostgreSQL databases.
type PostgreSQLCardRepository struct {
	db     *sql.DB
	mapper *cardMapper
}

// NewPostgreSQLCardRepository creates a new PostgreSQL card repository.
func NewPostgreSQLCardRepository(
	db *sql.DB,
	cipher cryptoService.FieldCipher,
	indexer cryptoService.BlindIndexer,
) *PostgreSQLCardRepository {
	return &PostgreSQLCardRepository{db: db, mapper: newCardMapper(cipher, indexer)}
}

// Create encrypts and inserts card, assigning its ID and timestamps.
func (p *PostgreSQLCardRepository) Create(ctx context.Context, card *cardDomain.Card) error {
	now := time.Now().UTC()
	card.CreatedAt = now
	card.UpdatedAt = now

	row, err := p.mapper.toRow(card)
	if err != nil {
		return err
	}

	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO cards (number_ciphertext, number_hash, expiration_date_ciphertext, status,
			  cvv_ciphertext, balance_ciphertext, user_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`

	err = querier.QueryRowContext(
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
	).Scan(&card.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return cardDomain.ErrCardNumberAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create card")
	}

	return nil
}

// Update re-encrypts and stores every column of card.
func (p *PostgreSQLCardRepository) Update(ctx context.Context, card *cardDomain.Card) error {
	card.UpdatedAt = time.Now().UTC()

	row, err := p.mapper.toRow(card)
	if err != nil {
		return err
	}

	querier := database.GetTx(ctx, p.db)

	query := `UPDATE cards
			  SET number_ciphertext = $1, number_hash = $2, expiration_date_ciphertext = $3, status = $4,
			  cvv_ciphertext = $5, balance_ciphertext = $6, user_id = $7, updated_at = $8
			  WHERE id = $9`

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
func (p *PostgreSQLCardRepository) Get(ctx context.Context, cardID int64) (*cardDomain.Card, error) {
	query := `SELECT ` + postgresCardColumns + postgresCardFrom + ` WHERE c.id = $1`
	return p.getOne(ctx, query, cardID)
}

// GetForUpdate is Get plus a row lock held until the surrounding transaction ends.
func (p *PostgreSQLCardRepository) GetForUpdate(ctx context.Context, cardID int64) (*cardDomain.Card, error) {
	query := `SELECT ` + postgresCardColumns + postgresCardFrom + ` WHERE c.id = $1 FOR UPDATE OF c`
	return p.getOne(ctx, query, cardID)
}

func (p *PostgreSQLCardRepository) getOne(
	ctx context.Context,
	query string,
	cardID int64,
) (*cardDomain.Card, error) {
	querier := database.GetTx(ctx, p.db)

	row, err := scanCardRow(querier.QueryRowContext(ctx, query, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cardDomain.ErrCardNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get card")
	}

	return p.mapper.toDomain(row)
}

// Delete removes a card permanently.
func (p *PostgreSQLCardRepository) Delete(ctx context.Context, cardID int64) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, cardID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete card")
	}

	return checkAffected(result, "failed to delete card")
}

// ListAll returns every card, most recent first.
func (p *PostgreSQLCardRepository) ListAll(ctx context.Context) ([]*cardDomain.Card, error) {
	query := `SELECT ` + postgresCardColumns + postgresCardFrom + ` ORDER BY c.id DESC`
	return queryCards(ctx, database.GetTx(ctx, p.db), p.mapper, query)
}

// ListByOwner returns all cards of ownerID ordered by ID.
func (p *PostgreSQLCardRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*cardDomain.Card, error) {
	query := `SELECT ` + postgresCardColumns + postgresCardFrom + ` WHERE c.user_id = $1 ORDER BY c.id ASC`
	return queryCards(ctx, database.GetTx(ctx, p.db), p.mapper, query, ownerID)
}

// ListByOwnerPaged returns one page of ownerID's cards ordered by ID.
func (p *PostgreSQLCardRepository) ListByOwnerPaged(
	ctx context.Context,
	ownerID int64,
	page, size int,
) (*cardDomain.Page, error) {
	querier := database.GetTx(ctx, p.db)

	var total int
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE user_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count cards")
	}
	if !pageInRange(page, size, total) {
		return &cardDomain.Page{Cards: []*cardDomain.Card{}, Page: page, Size: size, TotalItems: total}, nil
	}

	query := `SELECT ` + postgresCardColumns + postgresCardFrom +
		` WHERE c.user_id = $1 ORDER BY c.id ASC LIMIT $2 OFFSET $3`
	cards, err := queryCards(ctx, querier, p.mapper, query, ownerID, size, page*size)
	if err != nil {
		return nil, err
	}

	return &cardDomain.Page{Cards: cards, Page: page, Size: size, TotalItems: total}, nil
}

// ListByOwnerAndNumberContaining returns one page of ownerID's cards whose plaintext
// number contains substring, ordered by ID.
func (p *PostgreSQLCardRepository) ListByOwnerAndNumberContaining(
	ctx context.Context,
	ownerID int64,
	substring string,
	page, size int,
) (*cardDomain.Page, error) {
	cards, err := p.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return pageInMemory(cards, substring, page, size), nil
}

// ReencryptBatch locks up to limit cards with ID greater than afterID and rewrites
// those sealed with a non-active key. It must run inside a transaction.
func (p *PostgreSQLCardRepository) ReencryptBatch(
	ctx context.Context,
	afterID int64,
	limit int,
) (*cardDomain.RotationBatch, error) {
	if !database.InTx(ctx) {
		return nil, errOutsideTransaction
	}

	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresCardColumns + postgresCardFrom +
		` WHERE c.id > $1 ORDER BY c.id ASC LIMIT $2 FOR UPDATE OF c`
	rows, err := queryRows(ctx, querier, query, afterID, limit)
	if err != nil {
		return nil, err
	}

	batch := &cardDomain.RotationBatch{LastID: afterID}
	for _, row := range rows {
		batch.Scanned++
		batch.LastID = row.ID

		stale, err := p.mapper.needsRotation(row)
		if err != nil {
			return nil, err
		}
		if !stale {
			continue
		}

		card, err := p.mapper.toDomain(row)
		if err != nil {
			return nil, err
		}
		if err := p.Update(ctx, card); err != nil {
			return nil, err
		}
		batch.Rotated++
	}

	return batch, nil
}
