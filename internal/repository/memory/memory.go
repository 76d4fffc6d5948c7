// Package memory is an in-process storage used for local runs and tests.
// Transactions lock the touched accounts and items by key and stage their
// writes, which become visible all at once on commit.
package memory

import (
	"context"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/lib/keylock"
	"gcoin-shop/internal/repository"
	"github.com/google/uuid"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var _ repository.Store = (*Storage)(nil)

type Storage struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	items    map[uuid.UUID]models.MarketItem
	order    []uuid.UUID
	orders   []models.Order

	orderSeq atomic.Int64
	locks    *keylock.KeyLock
	now      func() time.Time
}

func New() *Storage {
	return &Storage{
		accounts: make(map[string]models.Account),
		items:    make(map[uuid.UUID]models.MarketItem),
		locks:    keylock.New(),
		now:      time.Now,
	}
}

func (s *Storage) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	t := newTx(s)
	defer t.release()

	if err := fn(t); err != nil {
		return err
	}

	s.commit(t)

	return nil
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) commit(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, acc := range t.accounts {
		s.accounts[id] = acc
	}

	for id := range t.removed {
		if _, ok := s.items[id]; ok {
			delete(s.items, id)
			s.order = removeID(s.order, id)
		}
	}

	for id, item := range t.items {
		if _, gone := t.removed[id]; gone {
			continue
		}
		s.items[id] = item
	}

	for _, id := range t.added {
		if _, gone := t.removed[id]; gone {
			continue
		}
		s.order = append(s.order, id)
	}

	s.orders = append(s.orders, t.orders...)
}

func (s *Storage) GetOrCreate(ctx context.Context, userID string) (models.Account, error) {
	var acc models.Account
	err := s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		acc, err = tx.GetOrCreate(ctx, userID)
		return err
	})
	return acc, err
}

func (s *Storage) LockAccount(ctx context.Context, userID string) (models.Account, error) {
	return s.GetOrCreate(ctx, userID)
}

func (s *Storage) SetLinkedHandle(ctx context.Context, userID, handle string) error {
	return s.InTx(ctx, func(tx repository.Tx) error {
		return tx.SetLinkedHandle(ctx, userID, handle)
	})
}

func (s *Storage) AdjustBalance(ctx context.Context, userID string, delta int) (int, error) {
	var balance int
	err := s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		balance, err = tx.AdjustBalance(ctx, userID, delta)
		return err
	})
	return balance, err
}

func (s *Storage) RecordClaim(ctx context.Context, userID string, now time.Time, reward int) (int, error) {
	var balance int
	err := s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		balance, err = tx.RecordClaim(ctx, userID, now, reward)
		return err
	})
	return balance, err
}

func (s *Storage) ListItems(ctx context.Context) ([]models.MarketItem, error) {
	return newTx(s).ListItems(ctx)
}

func (s *Storage) AddItem(ctx context.Context, item models.MarketItem) (models.MarketItem, error) {
	var added models.MarketItem
	err := s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		added, err = tx.AddItem(ctx, item)
		return err
	})
	return added, err
}

func (s *Storage) GetItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok || item.Stock == 0 {
		return models.MarketItem{}, repository.ErrItemNotFound
	}

	return item, nil
}

func (s *Storage) LockItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return models.MarketItem{}, repository.ErrItemNotFound
	}

	return item, nil
}

func (s *Storage) RemoveItem(ctx context.Context, name string) error {
	return s.InTx(ctx, func(tx repository.Tx) error {
		return tx.RemoveItem(ctx, name)
	})
}

func (s *Storage) RemoveItemByID(ctx context.Context, id uuid.UUID) error {
	return s.InTx(ctx, func(tx repository.Tx) error {
		return tx.RemoveItemByID(ctx, id)
	})
}

func (s *Storage) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	var remaining int
	err := s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		remaining, err = tx.DecrementStock(ctx, id, quantity)
		return err
	})
	return remaining, err
}

func (s *Storage) SaveOrder(ctx context.Context, order models.Order) (models.Order, error) {
	var saved models.Order
	err := s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		saved, err = tx.SaveOrder(ctx, order)
		return err
	})
	return saved, err
}

func (s *Storage) GetUserInventory(ctx context.Context, userID string) ([]dto.PurchaseDTO, error) {
	return newTx(s).GetUserInventory(ctx, userID)
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func groupInventory(orders []models.Order, userID string) []dto.PurchaseDTO {
	counts := make(map[string]int)
	for _, o := range orders {
		if o.UserID == userID {
			counts[o.ItemName]++
		}
	}

	result := make([]dto.PurchaseDTO, 0, len(counts))
	for name, qty := range counts {
		result = append(result, dto.PurchaseDTO{Item: name, Quantity: qty})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Item < result[j].Item
	})

	return result
}
