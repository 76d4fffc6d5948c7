package postgres

import (
	"context"
	"errors"
	"fmt"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/repository"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"time"
)

var _ repository.Store = (*Storage)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Storage struct {
	*queries
	db *pgxpool.Pool
}

type queries struct {
	q querier
}

func NewPostgres(ctx context.Context, conn string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{queries: &queries{q: db}, db: db}, nil
}

func (s *Storage) InTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	const op = "storage.Postgres.InTx"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&queries{q: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Multi-statement operations run in their own transaction when called outside InTx.

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

func (s *Storage) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	var remaining int
	err := s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		remaining, err = tx.DecrementStock(ctx, id, quantity)
		return err
	})
	return remaining, err
}

func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

func (r *queries) ensureAccount(ctx context.Context, userID string) error {
	const op = "storage.Postgres.ensureAccount"

	sql, args, err := squirrel.Insert("accounts").
		Columns("user_id").
		Values(userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = r.q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *queries) selectAccount(ctx context.Context, userID string, forUpdate bool) (models.Account, error) {
	const op = "storage.Postgres.selectAccount"

	builder := squirrel.Select("user_id", "linked_handle", "balance", "last_claim_at", "created_at").
		From("accounts").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	var acc models.Account
	err = r.q.QueryRow(ctx, sql, args...).
		Scan(&acc.UserID, &acc.LinkedHandle, &acc.Balance, &acc.LastClaimAt, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, fmt.Errorf("%s: %w", op, repository.ErrAccountNotFound)
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

func (r *queries) GetOrCreate(ctx context.Context, userID string) (models.Account, error) {
	if err := r.ensureAccount(ctx, userID); err != nil {
		return models.Account{}, err
	}

	return r.selectAccount(ctx, userID, false)
}

func (r *queries) LockAccount(ctx context.Context, userID string) (models.Account, error) {
	if err := r.ensureAccount(ctx, userID); err != nil {
		return models.Account{}, err
	}

	return r.selectAccount(ctx, userID, true)
}

func (r *queries) SetLinkedHandle(ctx context.Context, userID, handle string) error {
	const op = "storage.Postgres.SetLinkedHandle"

	sql, args, err := squirrel.Insert("accounts").
		Columns("user_id", "linked_handle").
		Values(userID, handle).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET linked_handle = EXCLUDED.linked_handle").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = r.q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *queries) AdjustBalance(ctx context.Context, userID string, delta int) (int, error) {
	const op = "storage.Postgres.AdjustBalance"

	if delta > models.MaxAmount {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrBalanceLimit)
	}
	if delta < -models.MaxAmount {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrInsufficientFunds)
	}

	if err := r.ensureAccount(ctx, userID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	sql, args, err := squirrel.Update("accounts").
		Set("balance", squirrel.Expr("balance + ?", delta)).
		Where(squirrel.Eq{"user_id": userID}).
		Where("balance::bigint + ? BETWEEN 0 AND ?", delta, models.MaxAmount).
		Suffix("RETURNING balance").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var balance int
	if err = r.q.QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if delta > 0 {
				return 0, fmt.Errorf("%s: %w", op, repository.ErrBalanceLimit)
			}
			return 0, fmt.Errorf("%s: %w", op, repository.ErrInsufficientFunds)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}

func (r *queries) RecordClaim(ctx context.Context, userID string, now time.Time, reward int) (int, error) {
	const op = "storage.Postgres.RecordClaim"

	if reward > models.MaxAmount {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrBalanceLimit)
	}

	if err := r.ensureAccount(ctx, userID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	sql, args, err := squirrel.Update("accounts").
		Set("balance", squirrel.Expr("balance + ?", reward)).
		Set("last_claim_at", now).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Or{
			squirrel.Eq{"last_claim_at": nil},
			squirrel.LtOrEq{"last_claim_at": now.Add(-models.ClaimCooldown)},
		}).
		Where("balance::bigint + ? <= ?", reward, models.MaxAmount).
		Suffix("RETURNING balance").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var balance int
	if err = r.q.QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, err)
		}

		acc, err := r.selectAccount(ctx, userID, false)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		if !acc.CanClaim(now) {
			return 0, fmt.Errorf("%s: %w", op, repository.ErrClaimCooldownActive)
		}
		return 0, fmt.Errorf("%s: %w", op, repository.ErrBalanceLimit)
	}

	return balance, nil
}

var itemColumns = []string{"id", "name", "price", "stock", "image_url", "created_at"}

func scanItem(row pgx.Row, item *models.MarketItem) error {
	return row.Scan(&item.ID, &item.Name, &item.Price, &item.Stock, &item.ImageURL, &item.CreatedAt)
}

func (r *queries) ListItems(ctx context.Context) ([]models.MarketItem, error) {
	const op = "storage.Postgres.ListItems"

	sql, args, err := squirrel.Select(itemColumns...).
		From("market_items").
		Where(squirrel.Gt{"stock": 0}).
		OrderBy("seq").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.MarketItem, 0)
	for rows.Next() {
		var item models.MarketItem
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func (r *queries) AddItem(ctx context.Context, item models.MarketItem) (models.MarketItem, error) {
	const op = "storage.Postgres.AddItem"

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	sql, args, err := squirrel.Insert("market_items").
		Columns("id", "name", "price", "stock", "image_url").
		Values(item.ID, item.Name, item.Price, item.Stock, item.ImageURL).
		Suffix("RETURNING created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return models.MarketItem{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = r.q.QueryRow(ctx, sql, args...).Scan(&item.CreatedAt); err != nil {
		return models.MarketItem{}, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

func (r *queries) selectItem(ctx context.Context, id uuid.UUID, forUpdate bool) (models.MarketItem, error) {
	const op = "storage.Postgres.selectItem"

	builder := squirrel.Select(itemColumns...).
		From("market_items").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	} else {
		builder = builder.Where(squirrel.Gt{"stock": 0})
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return models.MarketItem{}, fmt.Errorf("%s: %w", op, err)
	}

	var item models.MarketItem
	if err = scanItem(r.q.QueryRow(ctx, sql, args...), &item); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MarketItem{}, fmt.Errorf("%s: %w", op, repository.ErrItemNotFound)
		}
		return models.MarketItem{}, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

func (r *queries) GetItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error) {
	return r.selectItem(ctx, id, false)
}

func (r *queries) LockItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error) {
	return r.selectItem(ctx, id, true)
}

func (r *queries) RemoveItem(ctx context.Context, name string) error {
	const op = "storage.Postgres.RemoveItem"

	sql, args, err := squirrel.Delete("market_items").
		Where("id = (SELECT id FROM market_items WHERE name = ? AND stock > 0 ORDER BY seq LIMIT 1 FOR UPDATE)", name).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	cmdTag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrItemNotFound)
	}

	return nil
}

func (r *queries) RemoveItemByID(ctx context.Context, id uuid.UUID) error {
	const op = "storage.Postgres.RemoveItemByID"

	sql, args, err := squirrel.Delete("market_items").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Gt{"stock": 0}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	cmdTag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrItemNotFound)
	}

	return nil
}

// DecrementStock leaves sold out rows in place with stock 0, see
// market_items_retired_idx.
func (r *queries) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	const op = "storage.Postgres.DecrementStock"

	if quantity < 1 {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrInvalidQuantity)
	}

	sql, args, err := squirrel.Update("market_items").
		Set("stock", squirrel.Expr("stock - ?", quantity)).
		Where(squirrel.Eq{"id": id}).
		Where("stock >= ?", quantity).
		Suffix("RETURNING stock").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var remaining int
	err = r.q.QueryRow(ctx, sql, args...).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, lookupErr := r.selectItem(ctx, id, true); lookupErr != nil {
		return 0, fmt.Errorf("%s: %w", op, lookupErr)
	}

	return 0, fmt.Errorf("%s: %w", op, repository.ErrOutOfStock)
}

func (r *queries) SaveOrder(ctx context.Context, order models.Order) (models.Order, error) {
	const op = "storage.Postgres.SaveOrder"

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	sql, args, err := squirrel.Insert("orders").
		Columns("id", "user_id", "item_id", "item_name", "price", "created_at").
		Values(order.ID, order.UserID, order.ItemID, order.ItemName, order.Price, order.CreatedAt).
		Suffix("RETURNING number").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = r.q.QueryRow(ctx, sql, args...).Scan(&order.Number); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Order{}, fmt.Errorf("%s: %w", op, repository.ErrAccountNotFound)
		}
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (r *queries) GetUserInventory(ctx context.Context, userID string) ([]dto.PurchaseDTO, error) {
	const op = "storage.Postgres.GetUserInventory"

	sql, args, err := squirrel.Select("item_name AS type", "COUNT(*) AS quantity").
		From("orders").
		Where(squirrel.Eq{"user_id": userID}).
		GroupBy("item_name").
		OrderBy("item_name").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]dto.PurchaseDTO, 0)
	for rows.Next() {
		var item dto.PurchaseDTO
		if err := rows.Scan(&item.Item, &item.Quantity); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}
