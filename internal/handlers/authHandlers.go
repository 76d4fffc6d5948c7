package handlers

import (
	"context"
	"errors"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/middlewares"
	"gcoin-shop/internal/services"
	"github.com/gin-gonic/gin"
	"log/slog"
	"net/http"
	"time"
)

type AuthService interface {
	Login(ctx context.Context, userID, gatewayKey string) (accessToken string, refreshToken string, err error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, newRefreshToken string, err error)
}

type AuthHandler struct {
	log         *slog.Logger
	authService AuthService
}

func NewAuthHandler(log *slog.Logger, authService AuthService) *AuthHandler {
	return &AuthHandler{
		log:         log,
		authService: authService,
	}
}

// Auth
// @Summary Issue a JWT pair for a chat user
// @Description Called by the chat gateway. The account is created on first login.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   auth body dto.AuthRequest true "Gateway credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/auth [post]
func (h *AuthHandler) Auth(c *gin.Context) {
	var input dto.AuthRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	accessToken, refreshToken, err := h.authService.Login(c.Request.Context(), input.UserID, input.GatewayKey)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Status:       "success",
		Message:      "Authorization successful",
		Token:        accessToken,
		RefreshToken: refreshToken,
		Time:         time.Now().Format(time.RFC3339),
	})
}

// Refresh
// @Summary Rotate the JWT pair
// @Description A refresh token is accepted once.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   refresh body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var input dto.RefreshRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	accessToken, refreshToken, err := h.authService.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Status:       "success",
		Message:      "Token refreshed",
		Token:        accessToken,
		RefreshToken: refreshToken,
		Time:         time.Now().Format(time.RFC3339),
	})
}

func (h *AuthHandler) writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, middlewares.ErrEmptyField), errors.Is(err, middlewares.ErrUserIDTooLong):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized", Message: "Unauthorized"})
	default:
		writeError(c, h.log, err)
	}
}
