package dto

import "github.com/google/uuid"

// swagger:model
type Receipt struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      int64     `json:"order_number" example:"17"`
	ItemName         string    `json:"item_name" example:"Sword"`
	PricePaid        int       `json:"price_paid" example:"100"`
	RemainingBalance int       `json:"remaining_balance" example:"250"`
}

// swagger:model
type ClaimResponse struct {
	Coins  int `json:"coins" example:"200"`
	Reward int `json:"reward" example:"100"`
}
