package handlers

import (
	"context"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/domain/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"log/slog"
	"net/http"
	"time"
)

type ShopService interface {
	Purchase(ctx context.Context, userID string, itemID uuid.UUID) (dto.Receipt, error)
	ClaimDaily(ctx context.Context, userID string, now time.Time) (int, error)
	ClaimReward() int
	LinkAccount(ctx context.Context, userID, input string) (string, error)
	GetBalance(ctx context.Context, userID string) (int, error)
	GetInfo(ctx context.Context, userID string) (dto.InfoResponse, error)
	ListItems(ctx context.Context) ([]models.MarketItem, error)
}

type ShopHandler struct {
	log         *slog.Logger
	shopService ShopService
}

func NewShopHandler(log *slog.Logger, shopService ShopService) *ShopHandler {
	return &ShopHandler{
		log:         log,
		shopService: shopService,
	}
}

// GetInfo godoc
// @Summary Balance, linked handle and inventory of the caller
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.InfoResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/info [get]
func (h *ShopHandler) GetInfo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	info, err := h.shopService.GetInfo(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetBalance godoc
// @Summary Coin balance of the caller
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/balance [get]
func (h *ShopHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	coins, err := h.shopService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{Coins: coins})
}

// Link godoc
// @Summary Link an Instagram profile
// @Description Accepts a bare handle or a profile URL. Linking again overwrites the handle.
// @Tags user
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param link body dto.LinkRequest true "Handle or profile URL"
// @Success 200 {object} dto.LinkResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/link [post]
func (h *ShopHandler) Link(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input dto.LinkRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	handle, err := h.shopService.LinkAccount(c.Request.Context(), userID, input.Handle)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.LinkResponse{Handle: handle})
}

// Claim godoc
// @Summary Claim the daily reward
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.ClaimResponse
// @Failure 403 {object} dto.ErrorResponse "Account is not linked"
// @Failure 422 {object} dto.ErrorResponse "Balance limit reached"
// @Failure 429 {object} dto.ErrorResponse "Claimed less than 24 hours ago"
// @Router /api/claim [post]
func (h *ShopHandler) Claim(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	coins, err := h.shopService.ClaimDaily(c.Request.Context(), userID, time.Now().UTC())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ClaimResponse{Coins: coins, Reward: h.shopService.ClaimReward()})
}

// ListItems godoc
// @Summary Items on sale, in the order they were added
// @Tags market
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.MarketItem
// @Router /api/market [get]
func (h *ShopHandler) ListItems(c *gin.Context) {
	items, err := h.shopService.ListItems(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// Buy godoc
// @Summary Buy one unit of an item
// @Tags market
// @Security BearerAuth
// @Produce json
// @Param id path string true "Item id"
// @Success 200 {object} dto.Receipt
// @Failure 402 {object} dto.ErrorResponse "Insufficient funds"
// @Failure 403 {object} dto.ErrorResponse "Account is not linked"
// @Failure 404 {object} dto.ErrorResponse "Item not found"
// @Failure 409 {object} dto.ErrorResponse "Out of stock"
// @Router /api/buy/{id} [post]
func (h *ShopHandler) Buy(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "Invalid item id"})
		return
	}

	receipt, err := h.shopService.Purchase(c.Request.Context(), userID, itemID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}
