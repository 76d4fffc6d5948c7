package dto

import "time"

// swagger:model
type InfoResponse struct {
	UserID       string        `json:"user_id" example:"208463571839041536"`
	LinkedHandle *string       `json:"linked_handle,omitempty" example:"gcoin.official"`
	Coins        int           `json:"coins" example:"100"`
	LastClaimAt  *time.Time    `json:"last_claim_at,omitempty"`
	Inventory    []PurchaseDTO `json:"inventory"`
}

// swagger:model
type PurchaseDTO struct {
	Item     string `json:"type" example:"Sword"`
	Quantity int    `json:"quantity" example:"2"`
}

// swagger:model
type BalanceResponse struct {
	Coins int `json:"coins" example:"100"`
}
