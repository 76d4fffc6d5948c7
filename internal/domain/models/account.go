package models

import (
	"math"
	"time"
)

const (
	// ClaimCooldown is the minimal gap between two daily rewards of the same account.
	ClaimCooldown = 24 * time.Hour
	// MaxAmount bounds balances, prices and stock so they fit an INTEGER column.
	MaxAmount = math.MaxInt32
)

type Account struct {
	UserID       string     `json:"user_id" db:"user_id"`
	LinkedHandle *string    `json:"linked_handle,omitempty" db:"linked_handle"`
	Balance      int        `json:"balance" db:"balance"`
	LastClaimAt  *time.Time `json:"last_claim_at,omitempty" db:"last_claim_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

func (a Account) IsLinked() bool {
	return a.LinkedHandle != nil && *a.LinkedHandle != ""
}

// CanClaim reports whether a daily reward is available at now.
func (a Account) CanClaim(now time.Time) bool {
	if a.LastClaimAt == nil {
		return true
	}

	return now.Sub(*a.LastClaimAt) >= ClaimCooldown
}
