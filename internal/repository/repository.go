package repository

import (
	"context"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/domain/models"
	"github.com/google/uuid"
	"time"
)

type AccountStore interface {
	// GetOrCreate returns the account, creating a zero balance one on first reference.
	GetOrCreate(ctx context.Context, userID string) (models.Account, error)
	SetLinkedHandle(ctx context.Context, userID, handle string) error
	// AdjustBalance fails with ErrInsufficientFunds when the balance would go negative.
	AdjustBalance(ctx context.Context, userID string, delta int) (int, error)
	// RecordClaim credits reward and stamps now, or fails with ErrClaimCooldownActive.
	RecordClaim(ctx context.Context, userID string, now time.Time, reward int) (int, error)
}

type MarketCatalog interface {
	ListItems(ctx context.Context) ([]models.MarketItem, error)
	AddItem(ctx context.Context, item models.MarketItem) (models.MarketItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error)
	// RemoveItem deletes the earliest added item with the given name.
	RemoveItem(ctx context.Context, name string) error
	RemoveItemByID(ctx context.Context, id uuid.UUID) error
	// DecrementStock returns the remaining stock. An item that reaches zero is
	// retired: it no longer shows up in ListItems, GetItem or RemoveItem.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error)
}

type OrderLog interface {
	SaveOrder(ctx context.Context, order models.Order) (models.Order, error)
	GetUserInventory(ctx context.Context, userID string) ([]dto.PurchaseDTO, error)
}

// Tx is the view of the storage inside a transaction. Lock methods hold the row
// until the transaction ends; callers lock the item before the account.
// LockItem also returns retired items so late buyers get ErrOutOfStock.
type Tx interface {
	AccountStore
	MarketCatalog
	OrderLog

	LockAccount(ctx context.Context, userID string) (models.Account, error)
	LockItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error)
}

type Store interface {
	Tx

	// InTx commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
