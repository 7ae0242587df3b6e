// Package repository resolves card owners from the users table.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/cardledger/internal/database"
	apperrors "github.com/allisson/cardledger/internal/errors"
	"github.com/allisson/cardledger/internal/user/domain"
)

// UserRepository looks owners up by id. The users table is written by the identity
// service; this side only reads it.
type UserRepository struct {
	db           *sql.DB
	getByIDQuery string
}

// NewPostgreSQLUserRepository creates a UserRepository using $n placeholders.
func NewPostgreSQLUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{
		db:           db,
		getByIDQuery: `SELECT id, name, created_at FROM users WHERE id = $1`,
	}
}

// NewMySQLUserRepository creates a UserRepository using ? placeholders.
func NewMySQLUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{
		db:           db,
		getByIDQuery: `SELECT id, name, created_at FROM users WHERE id = ?`,
	}
}

// GetByID returns domain.ErrUserNotFound when no row matches. Inside WithTx the
// lookup joins the caller's transaction.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User

	err := database.GetTx(ctx, r.db).
		QueryRowContext(ctx, r.getByIDQuery, id).
		Scan(&user.ID, &user.Name, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to get user %d", id)
	}

	return &user, nil
}
