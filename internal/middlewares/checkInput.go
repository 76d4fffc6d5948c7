package middlewares

import (
	"fmt"
	"strings"
)

const maxUserIDLength = 64

func CheckInput(userID, gatewayKey string) error {
	if gatewayKey == "" {
		return ErrEmptyField
	}

	return CheckUserID(userID)
}

func CheckUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrEmptyField
	}

	if len(userID) > maxUserIDLength {
		return fmt.Errorf("%w: maximum %d characters allowed", ErrUserIDTooLong, maxUserIDLength)
	}

	return nil
}
