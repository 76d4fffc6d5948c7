package mysql

import (
	"context"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/repository"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a disposable database named by MYSQL_TEST_DSN.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN is not set")
	}

	s, err := NewMySQL(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	for _, table := range []string{"orders", "market_items", "accounts"} {
		require.NoError(t, s.db.Exec("DELETE FROM "+table).Error)
	}

	return s
}

func TestMySQL_BalanceAndClaim(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	balance, err := s.AdjustBalance(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Zero(t, balance)

	_, err = s.AdjustBalance(ctx, "u1", -1)
	assert.ErrorIs(t, err, repository.ErrInsufficientFunds)

	balance, err = s.RecordClaim(ctx, "u1", t0, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	_, err = s.RecordClaim(ctx, "u1", t0.Add(time.Hour), 100)
	assert.ErrorIs(t, err, repository.ErrClaimCooldownActive)

	require.NoError(t, s.SetLinkedHandle(ctx, "u1", "handle"))
	acc, err := s.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, acc.LinkedHandle)
	assert.Equal(t, "handle", *acc.LinkedHandle)
	assert.Equal(t, 100, acc.Balance)
}

func TestMySQL_BalanceLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.AdjustBalance(ctx, "u1", models.MaxAmount-10)
	require.NoError(t, err)

	_, err = s.AdjustBalance(ctx, "u1", 11)
	assert.ErrorIs(t, err, repository.ErrBalanceLimit)

	_, err = s.AdjustBalance(ctx, "u2", models.MaxAmount+1)
	assert.ErrorIs(t, err, repository.ErrBalanceLimit)

	_, err = s.RecordClaim(ctx, "u1", t0, 100)
	assert.ErrorIs(t, err, repository.ErrBalanceLimit)

	acc, err := s.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.MaxAmount-10, acc.Balance)
	assert.Nil(t, acc.LastClaimAt)
}

func TestMySQL_CatalogAndOrders(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	sword, err := s.AddItem(ctx, models.MarketItem{Name: "Sword", Price: 100, Stock: 1})
	require.NoError(t, err)
	_, err = s.AddItem(ctx, models.MarketItem{Name: "Sword", Price: 120, Stock: 1})
	require.NoError(t, err)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, sword.ID, items[0].ID)

	remaining, err := s.DecrementStock(ctx, sword.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	_, err = s.DecrementStock(ctx, sword.ID, 1)
	assert.ErrorIs(t, err, repository.ErrOutOfStock)

	require.NoError(t, s.RemoveItem(ctx, "Sword"))
	assert.ErrorIs(t, s.RemoveItem(ctx, "Sword"), repository.ErrItemNotFound)

	_, err = s.SaveOrder(ctx, models.Order{UserID: "u1", ItemID: sword.ID, ItemName: "Sword", Price: 100})
	require.NoError(t, err)

	inventory, err := s.GetUserInventory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inventory, 1)
	assert.Equal(t, 1, inventory[0].Quantity)
}
