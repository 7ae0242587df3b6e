// Package http provides HTTP handlers for the card API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/cardledger/internal/auth/domain"
	authHTTP "github.com/allisson/cardledger/internal/auth/http"
	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/card/http/dto"
	cardUseCase "github.com/allisson/cardledger/internal/card/usecase"
	apperrors "github.com/allisson/cardledger/internal/errors"
	"github.com/allisson/cardledger/internal/httputil"
	customValidation "github.com/allisson/cardledger/internal/validation"
)

// CardHandler handles HTTP requests for card management, balances and transfers.
type CardHandler struct {
	cardUseCase cardUseCase.CardUseCase
	pageMaxSize int
	logger      *slog.Logger
}

// NewCardHandler creates a new card handler with required dependencies.
func NewCardHandler(useCase cardUseCase.CardUseCase, pageMaxSize int, logger *slog.Logger) *CardHandler {
	return &CardHandler{
		cardUseCase: useCase,
		pageMaxSize: pageMaxSize,
		logger:      logger,
	}
}

// RegisterRoutes mounts the card routes on group. The group must already run
// authentication; role checks are applied here per route.
func (h *CardHandler) RegisterRoutes(group *gin.RouterGroup) {
	admin := group.Group("/admin", authHTTP.RequireRole(authDomain.RoleAdmin, h.logger))
	admin.POST("", h.AdminCreateHandler)
	admin.GET("/all", h.ListAllHandler)
	admin.PUT("/:id", h.UpdateHandler)
	admin.PATCH("/:id/status", h.UpdateStatusHandler)
	admin.DELETE("/:id", h.DeleteHandler)

	group.GET("/user/:userId", authHTTP.RequireRole(authDomain.RoleAdmin, h.logger), h.ListByUserHandler)

	user := group.Group("", authHTTP.RequireRole(authDomain.RoleUser, h.logger))
	user.POST("", h.CreateOwnHandler)
	user.GET("/my", h.ListMyCardsHandler)
	user.POST("/transfer", h.TransferHandler)
	user.GET("/:id/balance", h.BalanceHandler)
	user.PATCH("/:id/request-block", h.RequestBlockHandler)
	user.PATCH("/:id/cancel-request", h.CancelBlockRequestHandler)
}

// principal returns the authenticated caller or writes 401.
func (h *CardHandler) principal(c *gin.Context) (*authDomain.Principal, bool) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return nil, false
	}
	return principal, true
}

// cardID parses the :id path parameter or writes 400.
func (h *CardHandler) cardID(c *gin.Context) (int64, bool) {
	id, err := httputil.ParseID(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return 0, false
	}
	return id, true
}

func (h *CardHandler) createCard(c *gin.Context, ownerID *int64) {
	var req dto.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := cardUseCase.CreateCardInput{
		OwnerID:        req.UserID,
		Number:         req.Number,
		CVV:            req.CVV,
		ExpirationDate: req.ExpirationDate,
		Status:         req.Status,
		Balance:        req.Balance,
	}
	if ownerID != nil {
		input.OwnerID = *ownerID
	}

	card, err := h.cardUseCase.CreateCard(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCardToResponse(card))
}

// AdminCreateHandler creates a card for any user.
// POST /v1/cards/admin - ADMIN. Returns 201 Created.
func (h *CardHandler) AdminCreateHandler(c *gin.Context) {
	h.createCard(c, nil)
}

// CreateOwnHandler creates a card owned by the caller.
// POST /v1/cards - USER. Returns 201 Created.
func (h *CardHandler) CreateOwnHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	h.createCard(c, &principal.UserID)
}

// UpdateHandler replaces a card's details.
// PUT /v1/cards/admin/:id - ADMIN. Returns 200 OK.
func (h *CardHandler) UpdateHandler(c *gin.Context) {
	cardID, ok := h.cardID(c)
	if !ok {
		return
	}

	var req dto.UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	card, err := h.cardUseCase.UpdateCard(c.Request.Context(), cardID, cardUseCase.UpdateCardInput{
		Number:         req.Number,
		CVV:            req.CVV,
		ExpirationDate: req.ExpirationDate,
		Status:         req.Status,
		OwnerID:        req.UserID,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardToResponse(card))
}

// UpdateStatusHandler sets a card's status from any state.
// PATCH /v1/cards/admin/:id/status - ADMIN. Returns 200 OK.
func (h *CardHandler) UpdateStatusHandler(c *gin.Context) {
	cardID, ok := h.cardID(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	card, err := h.cardUseCase.UpdateStatus(c.Request.Context(), cardID, req.Status)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardToResponse(card))
}

// DeleteHandler removes a card.
// DELETE /v1/cards/admin/:id - ADMIN. Returns 204 No Content.
func (h *CardHandler) DeleteHandler(c *gin.Context) {
	cardID, ok := h.cardID(c)
	if !ok {
		return
	}

	if err := h.cardUseCase.DeleteCard(c.Request.Context(), cardID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListAllHandler lists every card, most recent first.
// GET /v1/cards/admin/all - ADMIN. Returns 200 OK.
func (h *CardHandler) ListAllHandler(c *gin.Context) {
	cards, err := h.cardUseCase.ListAllCards(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardsToListResponse(cards))
}

// ListByUserHandler lists the cards of one user.
// GET /v1/cards/user/:userId - ADMIN. Returns 200 OK.
func (h *CardHandler) ListByUserHandler(c *gin.Context) {
	userID, err := httputil.ParseID(c, "userId")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	cards, err := h.cardUseCase.ListCardsByOwner(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardsToListResponse(cards))
}

// ListMyCardsHandler pages through the caller's cards, optionally filtered by a
// number substring.
// GET /v1/cards/my?search=&page=&size= - USER. Returns 200 OK.
func (h *CardHandler) ListMyCardsHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	page, size, err := httputil.ParsePage(c, h.pageMaxSize)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	result, err := h.cardUseCase.ListOwnerCardsPaged(
		c.Request.Context(),
		principal.UserID,
		c.Query("search"),
		page,
		size,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPageToResponse(result))
}

// BalanceHandler returns the balance of one of the caller's cards.
// GET /v1/cards/:id/balance - USER. Returns 200 OK.
func (h *CardHandler) BalanceHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	cardID, ok := h.cardID(c)
	if !ok {
		return
	}

	balance, err := h.cardUseCase.GetBalance(c.Request.Context(), cardID, principal.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		CardID:  cardID,
		Balance: cardDomain.FormatAmount(balance),
	})
}

// RequestBlockHandler asks for one of the caller's cards to be blocked.
// PATCH /v1/cards/:id/request-block - USER. Returns 200 OK.
func (h *CardHandler) RequestBlockHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	cardID, ok := h.cardID(c)
	if !ok {
		return
	}

	card, err := h.cardUseCase.RequestBlock(c.Request.Context(), cardID, principal.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardToResponse(card))
}

// CancelBlockRequestHandler withdraws a pending block request.
// PATCH /v1/cards/:id/cancel-request - USER. Returns 200 OK.
func (h *CardHandler) CancelBlockRequestHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	cardID, ok := h.cardID(c)
	if !ok {
		return
	}

	card, err := h.cardUseCase.CancelBlockRequest(c.Request.Context(), cardID, principal.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardToResponse(card))
}

// TransferHandler moves funds between two cards. Non-admin callers must own the
// source card.
// POST /v1/cards/transfer - USER. Returns 200 OK.
func (h *CardHandler) TransferHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := cardUseCase.TransferInput{
		FromCardID: req.FromCardID,
		ToCardID:   req.ToCardID,
		Amount:     req.Amount,
	}
	if !principal.IsAdmin() {
		input.RequestedBy = &principal.UserID
	}

	err := h.cardUseCase.Transfer(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Transfer successful"})
}
