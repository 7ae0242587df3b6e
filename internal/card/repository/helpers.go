package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/database"
	apperrors "github.com/allisson/cardledger/internal/errors"
)

// errOutsideTransaction is returned by ReencryptBatch when ctx carries no transaction;
// the batch row locks would otherwise be released before the rewrites.
var errOutsideTransaction = errors.New("card re-encryption must run inside a transaction")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCardRow(scanner rowScanner) (*cardRow, error) {
	var row cardRow
	err := scanner.Scan(
		&row.ID,
		&row.NumberCiphertext,
		&row.ExpirationDateCiphertext,
		&row.Status,
		&row.CVVCiphertext,
		&row.BalanceCiphertext,
		&row.UserID,
		&row.UserName,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// queryCards runs query and decrypts every returned row.
func queryCards(
	ctx context.Context,
	querier database.Querier,
	mapper *cardMapper,
	query string,
	args ...any,
) ([]*cardDomain.Card, error) {
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list cards")
	}
	defer func() {
		_ = rows.Close()
	}()

	cards := make([]*cardDomain.Card, 0)
	for rows.Next() {
		row, err := scanCardRow(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan card")
		}
		card, err := mapper.toDomain(row)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate cards")
	}

	return cards, nil
}

// queryRows is like queryCards but keeps the encrypted rows.
func queryRows(ctx context.Context, querier database.Querier, query string, args ...any) ([]*cardRow, error) {
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list card rows")
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*cardRow
	for rows.Next() {
		row, err := scanCardRow(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan card")
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate card rows")
	}

	return result, nil
}

// pageInMemory filters cards whose plaintext number contains substring and returns
// the requested page. The stored ciphertext is randomized, so matching must happen
// after decryption.
func pageInMemory(cards []*cardDomain.Card, substring string, page, size int) *cardDomain.Page {
	matches := make([]*cardDomain.Card, 0, len(cards))
	for _, card := range cards {
		if strings.Contains(card.Number, substring) {
			matches = append(matches, card)
		}
	}

	result := &cardDomain.Page{
		Cards:      []*cardDomain.Card{},
		Page:       page,
		Size:       size,
		TotalItems: len(matches),
	}

	if !pageInRange(page, size, len(matches)) {
		return result
	}
	start := page * size
	end := min(start+size, len(matches))
	result.Cards = matches[start:end]

	return result
}

// pageInRange reports whether page starts before total. It compares without
// computing page*size, which overflows for very large pages.
func pageInRange(page, size, total int) bool {
	return page >= 0 && size > 0 && page < (total+size-1)/size
}

// isUniqueViolation reports whether err is a unique constraint violation on either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// checkAffected maps a zero row count to ErrCardNotFound.
func checkAffected(result sql.Result, message string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, message)
	}
	if affected == 0 {
		return cardDomain.ErrCardNotFound
	}
	return nil
}
