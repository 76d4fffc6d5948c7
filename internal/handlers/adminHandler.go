package handlers

import (
	"context"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"log/slog"
	"net/http"
)

type AdminService interface {
	AddItem(ctx context.Context, name string, price, stock int, imageURL *string) (models.MarketItem, error)
	RemoveItem(ctx context.Context, name string) error
	RemoveItemByID(ctx context.Context, id uuid.UUID) error
	AdjustBalance(ctx context.Context, userID string, delta int) (int, error)
}

type AdminHandler struct {
	log          *slog.Logger
	adminService AdminService
}

func NewAdminHandler(log *slog.Logger, adminService AdminService) *AdminHandler {
	return &AdminHandler{
		log:          log,
		adminService: adminService,
	}
}

// AddItem godoc
// @Summary Put a new item on sale
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param item body dto.AddItemRequest true "Item"
// @Success 201 {object} models.MarketItem
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/market [post]
func (h *AdminHandler) AddItem(c *gin.Context) {
	var input dto.AddItemRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	item, err := h.adminService.AddItem(c.Request.Context(), input.Name, input.Price, input.Stock, input.ImageURL)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// RemoveItem godoc
// @Summary Remove the earliest added item with the given name
// @Tags admin
// @Security BearerAuth
// @Param name path string true "Item name"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/market/{name} [delete]
func (h *AdminHandler) RemoveItem(c *gin.Context) {
	if err := h.adminService.RemoveItem(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveItemByID godoc
// @Summary Remove an item by id
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Item id"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/items/{id} [delete]
func (h *AdminHandler) RemoveItemByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "Invalid item id"})
		return
	}

	if err := h.adminService.RemoveItemByID(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AdjustBalance godoc
// @Summary Credit or debit an account
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param adjust body dto.AdjustBalanceRequest true "Delta"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/accounts/{id}/adjust [post]
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	userID := c.Param("id")
	if err := middlewares.CheckUserID(userID); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	var input dto.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	coins, err := h.adminService.AdjustBalance(c.Request.Context(), userID, input.Delta)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{Coins: coins})
}
