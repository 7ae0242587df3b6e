package dto

import (
	"time"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
)

// CardResponse represents a card in API responses. The CVV is never returned.
type CardResponse struct {
	ID             int64     `json:"id"`
	Number         string    `json:"number"`
	ExpirationDate string    `json:"expiration_date"`
	Status         string    `json:"status"`
	Balance        string    `json:"balance"`
	UserID         int64     `json:"user_id"`
	UserName       string    `json:"user_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MapCardToResponse converts a domain card to an API response.
func MapCardToResponse(card *cardDomain.Card) CardResponse {
	return CardResponse{
		ID:             card.ID,
		Number:         card.Number,
		ExpirationDate: card.ExpirationDate,
		Status:         string(card.Status),
		Balance:        cardDomain.FormatAmount(card.Balance),
		UserID:         card.Owner.ID,
		UserName:       card.Owner.Name,
		CreatedAt:      card.CreatedAt,
		UpdatedAt:      card.UpdatedAt,
	}
}

// ListCardsResponse represents a list of cards in API responses.
type ListCardsResponse struct {
	Data []CardResponse `json:"data"`
}

// MapCardsToListResponse converts domain cards to a list API response.
func MapCardsToListResponse(cards []*cardDomain.Card) ListCardsResponse {
	data := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		data = append(data, MapCardToResponse(card))
	}
	return ListCardsResponse{Data: data}
}

// PageResponse represents one page of the caller's cards.
type PageResponse struct {
	Data       []CardResponse `json:"data"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
}

// MapPageToResponse converts a domain page to an API response.
func MapPageToResponse(page *cardDomain.Page) PageResponse {
	return PageResponse{
		Data:       MapCardsToListResponse(page.Cards).Data,
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages(),
	}
}

// BalanceResponse contains the balance of a card.
type BalanceResponse struct {
	CardID  int64  `json:"card_id"`
	Balance string `json:"balance"`
}

// MessageResponse carries a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
