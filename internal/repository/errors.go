package repository

import (
	"errors"
	"gcoin-shop/internal/domain/models"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrBalanceLimit        = errors.New("balance limit exceeded")
	ErrOutOfStock          = errors.New("out of stock")
	ErrClaimCooldownActive = errors.New("daily claim is on cooldown")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrTokenNotFound       = errors.New("refresh token not found")
)

// CheckBalanceChange reports whether delta can be applied to a balance without
// leaving the [0, models.MaxAmount] range.
func CheckBalanceChange(balance, delta int) error {
	switch {
	case delta < 0 && delta < -balance:
		return ErrInsufficientFunds
	case delta > 0 && balance > models.MaxAmount-delta:
		return ErrBalanceLimit
	}

	return nil
}
