package handlers

import (
	"errors"
	"fmt"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/repository"
	"gcoin-shop/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
	"strings"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{services.ErrAccountNotLinked, http.StatusForbidden, "account_not_linked"},
	{repository.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
	{repository.ErrBalanceLimit, http.StatusUnprocessableEntity, "balance_limit_exceeded"},
	{repository.ErrOutOfStock, http.StatusConflict, "out_of_stock"},
	{repository.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{services.ErrInvalidItem, http.StatusBadRequest, "invalid_item"},
	{services.ErrInvalidHandle, http.StatusBadRequest, "invalid_handle"},
	{repository.ErrClaimCooldownActive, http.StatusTooManyRequests, "claim_cooldown_active"},
}

// writeError renders a domain error. Unknown errors become a generic 500 and
// are logged.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			c.JSON(m.status, dto.ErrorResponse{Error: m.code, Message: m.target.Error()})
			return
		}
	}

	log.Error("request failed",
		slog.String("path", c.FullPath()),
		slog.String("error", err.Error()),
	)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal", Message: "Server error"})
}

func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: describeBindError(err)})
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "malformed request body"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}

	return strings.Join(msgs, "; ")
}

func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized", Message: "Unauthorized"})
		return "", false
	}
	return userID, true
}
