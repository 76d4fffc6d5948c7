package models

import (
	"github.com/google/uuid"
	"time"
)

type Order struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Number    int64     `json:"number" db:"number"`
	UserID    string    `json:"user_id" db:"user_id"`
	ItemID    uuid.UUID `json:"item_id" db:"item_id"`
	ItemName  string    `json:"item_name" db:"item_name"`
	Price     int       `json:"price" db:"price"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
