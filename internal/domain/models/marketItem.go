package models

import (
	"github.com/google/uuid"
	"time"
)

// MarketItem is a catalog entry. Name is a display attribute, items are keyed by ID.
type MarketItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Price     int       `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	ImageURL  *string   `json:"image_url,omitempty" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
