// Package mocks provides mock implementations for testing card use cases and handlers.
package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/card/usecase"
	userDomain "github.com/allisson/cardledger/internal/user/domain"
)

func card(args mock.Arguments) (*cardDomain.Card, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cardDomain.Card), args.Error(1)
}

func cards(args mock.Arguments) ([]*cardDomain.Card, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cardDomain.Card), args.Error(1)
}

func page(args mock.Arguments) (*cardDomain.Page, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cardDomain.Page), args.Error(1)
}

func rotation(args mock.Arguments) (*cardDomain.RotationBatch, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cardDomain.RotationBatch), args.Error(1)
}

// MockCardUseCase is a mock implementation of usecase.CardUseCase.
type MockCardUseCase struct {
	mock.Mock
}

var _ usecase.CardUseCase = (*MockCardUseCase)(nil)

func (m *MockCardUseCase) CreateCard(
	ctx context.Context,
	input usecase.CreateCardInput,
) (*cardDomain.Card, error) {
	return card(m.Called(ctx, input))
}

func (m *MockCardUseCase) UpdateCard(
	ctx context.Context,
	cardID int64,
	input usecase.UpdateCardInput,
) (*cardDomain.Card, error) {
	return card(m.Called(ctx, cardID, input))
}

func (m *MockCardUseCase) UpdateStatus(
	ctx context.Context,
	cardID int64,
	status string,
) (*cardDomain.Card, error) {
	return card(m.Called(ctx, cardID, status))
}

func (m *MockCardUseCase) DeleteCard(ctx context.Context, cardID int64) error {
	return m.Called(ctx, cardID).Error(0)
}

func (m *MockCardUseCase) ListAllCards(ctx context.Context) ([]*cardDomain.Card, error) {
	return cards(m.Called(ctx))
}

func (m *MockCardUseCase) ListCardsByOwner(ctx context.Context, ownerID int64) ([]*cardDomain.Card, error) {
	return cards(m.Called(ctx, ownerID))
}

func (m *MockCardUseCase) ListOwnerCardsPaged(
	ctx context.Context,
	ownerID int64,
	search string,
	pageNumber, size int,
) (*cardDomain.Page, error) {
	return page(m.Called(ctx, ownerID, search, pageNumber, size))
}

func (m *MockCardUseCase) GetBalance(ctx context.Context, cardID, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, cardID, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCardUseCase) RequestBlock(ctx context.Context, cardID, userID int64) (*cardDomain.Card, error) {
	return card(m.Called(ctx, cardID, userID))
}

func (m *MockCardUseCase) CancelBlockRequest(
	ctx context.Context,
	cardID, userID int64,
) (*cardDomain.Card, error) {
	return card(m.Called(ctx, cardID, userID))
}

func (m *MockCardUseCase) Transfer(ctx context.Context, input usecase.TransferInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockCardUseCase) RotateFieldKeys(
	ctx context.Context,
	batchSize int,
) (*cardDomain.RotationBatch, error) {
	return rotation(m.Called(ctx, batchSize))
}

// MockCardRepository is a mock implementation of usecase.CardRepository.
type MockCardRepository struct {
	mock.Mock
}

var _ usecase.CardRepository = (*MockCardRepository)(nil)

func (m *MockCardRepository) Create(ctx context.Context, c *cardDomain.Card) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCardRepository) Update(ctx context.Context, c *cardDomain.Card) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCardRepository) Get(ctx context.Context, cardID int64) (*cardDomain.Card, error) {
	return card(m.Called(ctx, cardID))
}

func (m *MockCardRepository) GetForUpdate(ctx context.Context, cardID int64) (*cardDomain.Card, error) {
	return card(m.Called(ctx, cardID))
}

func (m *MockCardRepository) Delete(ctx context.Context, cardID int64) error {
	return m.Called(ctx, cardID).Error(0)
}

func (m *MockCardRepository) ListAll(ctx context.Context) ([]*cardDomain.Card, error) {
	return cards(m.Called(ctx))
}

func (m *MockCardRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*cardDomain.Card, error) {
	return cards(m.Called(ctx, ownerID))
}

func (m *MockCardRepository) ListByOwnerPaged(
	ctx context.Context,
	ownerID int64,
	pageNumber, size int,
) (*cardDomain.Page, error) {
	return page(m.Called(ctx, ownerID, pageNumber, size))
}

func (m *MockCardRepository) ListByOwnerAndNumberContaining(
	ctx context.Context,
	ownerID int64,
	substring string,
	pageNumber, size int,
) (*cardDomain.Page, error) {
	return page(m.Called(ctx, ownerID, substring, pageNumber, size))
}

func (m *MockCardRepository) ReencryptBatch(
	ctx context.Context,
	afterID int64,
	limit int,
) (*cardDomain.RotationBatch, error) {
	return rotation(m.Called(ctx, afterID, limit))
}

// MockUserRepository is a mock implementation of usecase.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

var _ usecase.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*userDomain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}
