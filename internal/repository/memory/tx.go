package memory

import (
	"context"
	"errors"
	"fmt"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/repository"
	"github.com/google/uuid"
	"time"
)

var _ repository.Tx = (*tx)(nil)

type tx struct {
	s    *Storage
	held []string
	// keys already locked by this transaction
	heldSet map[string]struct{}

	accounts map[string]models.Account
	items    map[uuid.UUID]models.MarketItem
	added    []uuid.UUID
	removed  map[uuid.UUID]struct{}
	orders   []models.Order
}

func newTx(s *Storage) *tx {
	return &tx{
		s:        s,
		heldSet:  make(map[string]struct{}),
		accounts: make(map[string]models.Account),
		items:    make(map[uuid.UUID]models.MarketItem),
		removed:  make(map[uuid.UUID]struct{}),
	}
}

func accountKey(userID string) string { return "account:" + userID }
func itemKey(id uuid.UUID) string     { return "item:" + id.String() }

func (t *tx) lock(ctx context.Context, key string) error {
	if _, ok := t.heldSet[key]; ok {
		return nil
	}

	if err := t.s.locks.Lock(ctx, key); err != nil {
		return fmt.Errorf("storage.memory.lock %s: %w", key, err)
	}

	t.held = append(t.held, key)
	t.heldSet[key] = struct{}{}

	return nil
}

func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.Unlock(t.held[i])
	}
	t.held = nil
}

// account locks and returns the account, staging a new one if it does not exist.
func (t *tx) account(ctx context.Context, userID string) (models.Account, error) {
	if err := t.lock(ctx, accountKey(userID)); err != nil {
		return models.Account{}, err
	}

	if acc, ok := t.accounts[userID]; ok {
		return acc, nil
	}

	t.s.mu.RLock()
	acc, ok := t.s.accounts[userID]
	t.s.mu.RUnlock()

	if !ok {
		acc = models.Account{UserID: userID, CreatedAt: t.s.now().UTC()}
		t.accounts[userID] = acc
	}

	return acc, nil
}

func (t *tx) item(ctx context.Context, id uuid.UUID) (models.MarketItem, error) {
	if err := t.lock(ctx, itemKey(id)); err != nil {
		return models.MarketItem{}, err
	}

	if _, gone := t.removed[id]; gone {
		return models.MarketItem{}, repository.ErrItemNotFound
	}

	if item, ok := t.items[id]; ok {
		return item, nil
	}

	t.s.mu.RLock()
	item, ok := t.s.items[id]
	t.s.mu.RUnlock()

	if !ok {
		return models.MarketItem{}, repository.ErrItemNotFound
	}

	return item, nil
}

func (t *tx) GetOrCreate(ctx context.Context, userID string) (models.Account, error) {
	return t.account(ctx, userID)
}

func (t *tx) LockAccount(ctx context.Context, userID string) (models.Account, error) {
	return t.account(ctx, userID)
}

func (t *tx) SetLinkedHandle(ctx context.Context, userID, handle string) error {
	acc, err := t.account(ctx, userID)
	if err != nil {
		return err
	}

	acc.LinkedHandle = &handle
	t.accounts[userID] = acc

	return nil
}

func (t *tx) AdjustBalance(ctx context.Context, userID string, delta int) (int, error) {
	acc, err := t.account(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := repository.CheckBalanceChange(acc.Balance, delta); err != nil {
		return acc.Balance, err
	}

	acc.Balance += delta
	t.accounts[userID] = acc

	return acc.Balance, nil
}

func (t *tx) RecordClaim(ctx context.Context, userID string, now time.Time, reward int) (int, error) {
	acc, err := t.account(ctx, userID)
	if err != nil {
		return 0, err
	}

	if !acc.CanClaim(now) {
		return acc.Balance, repository.ErrClaimCooldownActive
	}

	if err := repository.CheckBalanceChange(acc.Balance, reward); err != nil {
		return acc.Balance, err
	}

	acc.Balance += reward
	acc.LastClaimAt = &now
	t.accounts[userID] = acc

	return acc.Balance, nil
}

func (t *tx) ListItems(ctx context.Context) ([]models.MarketItem, error) {
	t.s.mu.RLock()
	items := make([]models.MarketItem, 0, len(t.s.order)+len(t.added))
	for _, id := range t.s.order {
		if _, gone := t.removed[id]; gone {
			continue
		}
		item, ok := t.items[id]
		if !ok {
			item = t.s.items[id]
		}
		if item.Stock > 0 {
			items = append(items, item)
		}
	}
	t.s.mu.RUnlock()

	for _, id := range t.added {
		if _, gone := t.removed[id]; gone {
			continue
		}
		if item := t.items[id]; item.Stock > 0 {
			items = append(items, item)
		}
	}

	return items, nil
}

func (t *tx) AddItem(ctx context.Context, item models.MarketItem) (models.MarketItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = t.s.now().UTC()
	}

	if err := t.lock(ctx, itemKey(item.ID)); err != nil {
		return models.MarketItem{}, err
	}

	t.items[item.ID] = item
	t.added = append(t.added, item.ID)

	return item, nil
}

func (t *tx) GetItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error) {
	item, err := t.item(ctx, id)
	if err != nil {
		return models.MarketItem{}, err
	}
	if item.Stock == 0 {
		return models.MarketItem{}, repository.ErrItemNotFound
	}
	return item, nil
}

func (t *tx) LockItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error) {
	return t.item(ctx, id)
}

func (t *tx) RemoveItem(ctx context.Context, name string) error {
	skip := make(map[uuid.UUID]struct{})
	for {
		items, err := t.ListItems(ctx)
		if err != nil {
			return err
		}

		id := uuid.Nil
		for _, item := range items {
			if _, ok := skip[item.ID]; ok {
				continue
			}
			if item.Name == name {
				id = item.ID
				break
			}
		}
		if id == uuid.Nil {
			return repository.ErrItemNotFound
		}

		err = t.RemoveItemByID(ctx, id)
		if err == nil {
			return nil
		}
		// sold out or removed concurrently, look for the next match
		if !errors.Is(err, repository.ErrItemNotFound) {
			return err
		}
		skip[id] = struct{}{}
	}
}

func (t *tx) RemoveItemByID(ctx context.Context, id uuid.UUID) error {
	if _, err := t.GetItem(ctx, id); err != nil {
		return err
	}

	t.removed[id] = struct{}{}
	delete(t.items, id)

	return nil
}

func (t *tx) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	if quantity < 1 {
		return 0, repository.ErrInvalidQuantity
	}

	item, err := t.item(ctx, id)
	if err != nil {
		return 0, err
	}

	if item.Stock-quantity < 0 {
		return item.Stock, repository.ErrOutOfStock
	}

	// a sold out item stays as a retired record outside the catalog
	item.Stock -= quantity
	t.items[id] = item

	return item.Stock, nil
}

func (t *tx) SaveOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = t.s.now().UTC()
	}
	order.Number = t.s.orderSeq.Add(1)

	t.orders = append(t.orders, order)

	return order, nil
}

func (t *tx) GetUserInventory(ctx context.Context, userID string) ([]dto.PurchaseDTO, error) {
	t.s.mu.RLock()
	orders := make([]models.Order, 0, len(t.s.orders)+len(t.orders))
	orders = append(orders, t.s.orders...)
	t.s.mu.RUnlock()

	orders = append(orders, t.orders...)

	return groupInventory(orders, userID), nil
}
