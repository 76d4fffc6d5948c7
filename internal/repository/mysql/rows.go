package mysql

import (
	"gcoin-shop/internal/domain/models"
	"github.com/google/uuid"
	"time"
)

type accountRow struct {
	UserID       string  `gorm:"primaryKey;size:64"`
	LinkedHandle *string `gorm:"size:64"`
	Balance      int     `gorm:"not null;default:0"`
	LastClaimAt  *time.Time
	CreatedAt    time.Time
}

func (accountRow) TableName() string { return "accounts" }

func (r accountRow) toModel() models.Account {
	return models.Account{
		UserID:       r.UserID,
		LinkedHandle: r.LinkedHandle,
		Balance:      r.Balance,
		LastClaimAt:  r.LastClaimAt,
		CreatedAt:    r.CreatedAt,
	}
}

// Seq keeps the insertion order of the catalog. Sold out rows stay with
// Stock 0 and are indexed for cleanup.
type itemRow struct {
	Seq       int64   `gorm:"primaryKey;autoIncrement"`
	ID        string  `gorm:"uniqueIndex;size:36;not null"`
	Name      string  `gorm:"index;size:255;not null"`
	Price     int     `gorm:"not null"`
	Stock     int     `gorm:"not null;index"`
	ImageURL  *string `gorm:"size:512"`
	CreatedAt time.Time
}

func (itemRow) TableName() string { return "market_items" }

func (r itemRow) toModel() models.MarketItem {
	id, _ := uuid.Parse(r.ID)
	return models.MarketItem{
		ID:        id,
		Name:      r.Name,
		Price:     r.Price,
		Stock:     r.Stock,
		ImageURL:  r.ImageURL,
		CreatedAt: r.CreatedAt,
	}
}

type orderRow struct {
	Number    int64  `gorm:"primaryKey;autoIncrement"`
	ID        string `gorm:"uniqueIndex;size:36;not null"`
	UserID    string `gorm:"index;size:64;not null"`
	ItemID    string `gorm:"size:36;not null"`
	ItemName  string `gorm:"size:255;not null"`
	Price     int    `gorm:"not null"`
	CreatedAt time.Time
}

func (orderRow) TableName() string { return "orders" }
