// Package mysql stores accounts, the catalog and orders in MySQL through gorm.
// The DSN must enable parseTime, e.g. "user:pass@tcp(localhost:3306)/gcoin?parseTime=true".
package mysql

import (
	"context"
	"errors"
	"fmt"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/repository"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"log/slog"
	"time"
)

var _ repository.Store = (*Storage)(nil)

type Storage struct {
	*queries
	db *gorm.DB
}

type queries struct {
	db *gorm.DB
}

func NewMySQL(dsn string, log *slog.Logger, debug bool) (*Storage, error) {
	const op = "storage.mysql.New"

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: newGormLogger(log, debug),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&accountRow{}, &itemRow{}, &orderRow{}); err != nil {
		return nil, fmt.Errorf("%s: migrate schema: %w", op, err)
	}

	return &Storage{queries: &queries{db: db}, db: db}, nil
}

func (s *Storage) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&queries{db: tx})
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

func (s *Storage) RemoveItem(ctx context.Context, name string) error {
	return s.InTx(ctx, func(tx repository.Tx) error {
		return tx.RemoveItem(ctx, name)
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

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *queries) ensureAccount(ctx context.Context, userID string) error {
	const op = "storage.MySQL.ensureAccount"

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&accountRow{UserID: userID}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *queries) selectAccount(ctx context.Context, userID string, forUpdate bool) (models.Account, error) {
	const op = "storage.MySQL.selectAccount"

	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row accountRow
	if err := q.Where("user_id = ?", userID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Account{}, fmt.Errorf("%s: %w", op, repository.ErrAccountNotFound)
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return row.toModel(), nil
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
	const op = "storage.MySQL.SetLinkedHandle"

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"linked_handle"}),
		}).
		Create(&accountRow{UserID: userID, LinkedHandle: &handle}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *queries) AdjustBalance(ctx context.Context, userID string, delta int) (int, error) {
	const op = "storage.MySQL.AdjustBalance"

	if delta > models.MaxAmount {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrBalanceLimit)
	}
	if delta < -models.MaxAmount {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrInsufficientFunds)
	}

	if err := r.ensureAccount(ctx, userID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	// MySQL reports zero affected rows for a no-op update
	if delta != 0 {
		res := r.db.WithContext(ctx).
			Model(&accountRow{}).
			Where("user_id = ? AND balance + ? BETWEEN 0 AND ?", userID, delta, models.MaxAmount).
			UpdateColumn("balance", gorm.Expr("balance + ?", delta))
		if res.Error != nil {
			return 0, fmt.Errorf("%s: %w", op, res.Error)
		}
		if res.RowsAffected == 0 {
			if delta > 0 {
				return 0, fmt.Errorf("%s: %w", op, repository.ErrBalanceLimit)
			}
			return 0, fmt.Errorf("%s: %w", op, repository.ErrInsufficientFunds)
		}
	}

	acc, err := r.selectAccount(ctx, userID, false)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return acc.Balance, nil
}

func (r *queries) RecordClaim(ctx context.Context, userID string, now time.Time, reward int) (int, error) {
	const op = "storage.MySQL.RecordClaim"

	if reward > models.MaxAmount {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrBalanceLimit)
	}

	if err := r.ensureAccount(ctx, userID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	res := r.db.WithContext(ctx).
		Model(&accountRow{}).
		Where("user_id = ? AND (last_claim_at IS NULL OR last_claim_at <= ?)", userID, now.Add(-models.ClaimCooldown)).
		Where("balance + ? <= ?", reward, models.MaxAmount).
		UpdateColumns(map[string]any{
			"balance":       gorm.Expr("balance + ?", reward),
			"last_claim_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("%s: %w", op, res.Error)
	}

	acc, err := r.selectAccount(ctx, userID, false)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if res.RowsAffected == 0 {
		if !acc.CanClaim(now) {
			return 0, fmt.Errorf("%s: %w", op, repository.ErrClaimCooldownActive)
		}
		return 0, fmt.Errorf("%s: %w", op, repository.ErrBalanceLimit)
	}

	return acc.Balance, nil
}

func (r *queries) ListItems(ctx context.Context) ([]models.MarketItem, error) {
	const op = "storage.MySQL.ListItems"

	var rows []itemRow
	if err := r.db.WithContext(ctx).Where("stock > 0").Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]models.MarketItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel())
	}

	return items, nil
}

func (r *queries) AddItem(ctx context.Context, item models.MarketItem) (models.MarketItem, error) {
	const op = "storage.MySQL.AddItem"

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	row := itemRow{
		ID:       item.ID.String(),
		Name:     item.Name,
		Price:    item.Price,
		Stock:    item.Stock,
		ImageURL: item.ImageURL,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.MarketItem{}, fmt.Errorf("%s: %w", op, err)
	}

	return row.toModel(), nil
}

func (r *queries) selectItem(ctx context.Context, id uuid.UUID, forUpdate bool) (itemRow, error) {
	const op = "storage.MySQL.selectItem"

	q := r.db.WithContext(ctx).Where("id = ?", id.String())
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	} else {
		q = q.Where("stock > 0")
	}

	var row itemRow
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return itemRow{}, fmt.Errorf("%s: %w", op, repository.ErrItemNotFound)
		}
		return itemRow{}, fmt.Errorf("%s: %w", op, err)
	}

	return row, nil
}

func (r *queries) GetItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error) {
	row, err := r.selectItem(ctx, id, false)
	if err != nil {
		return models.MarketItem{}, err
	}
	return row.toModel(), nil
}

func (r *queries) LockItem(ctx context.Context, id uuid.UUID) (models.MarketItem, error) {
	row, err := r.selectItem(ctx, id, true)
	if err != nil {
		return models.MarketItem{}, err
	}
	return row.toModel(), nil
}

func (r *queries) RemoveItem(ctx context.Context, name string) error {
	const op = "storage.MySQL.RemoveItem"

	var row itemRow
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ? AND stock > 0", name).
		Order("seq").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s: %w", op, repository.ErrItemNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.db.WithContext(ctx).Delete(&itemRow{}, "seq = ?", row.Seq).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *queries) RemoveItemByID(ctx context.Context, id uuid.UUID) error {
	const op = "storage.MySQL.RemoveItemByID"

	res := r.db.WithContext(ctx).Where("id = ? AND stock > 0", id.String()).Delete(&itemRow{})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrItemNotFound)
	}

	return nil
}

func (r *queries) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	const op = "storage.MySQL.DecrementStock"

	if quantity < 1 {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrInvalidQuantity)
	}

	res := r.db.WithContext(ctx).
		Model(&itemRow{}).
		Where("id = ? AND stock >= ?", id.String(), quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return 0, fmt.Errorf("%s: %w", op, res.Error)
	}

	row, err := r.selectItem(ctx, id, true)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrOutOfStock)
	}

	return row.Stock, nil
}

func (r *queries) SaveOrder(ctx context.Context, order models.Order) (models.Order, error) {
	const op = "storage.MySQL.SaveOrder"

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	row := orderRow{
		ID:        order.ID.String(),
		UserID:    order.UserID,
		ItemID:    order.ItemID.String(),
		ItemName:  order.ItemName,
		Price:     order.Price,
		CreatedAt: order.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	order.Number = row.Number

	return order, nil
}

func (r *queries) GetUserInventory(ctx context.Context, userID string) ([]dto.PurchaseDTO, error) {
	const op = "storage.MySQL.GetUserInventory"

	items := make([]dto.PurchaseDTO, 0)
	err := r.db.WithContext(ctx).
		Model(&orderRow{}).
		Select("item_name AS item, COUNT(*) AS quantity").
		Where("user_id = ?", userID).
		Group("item_name").
		Order("item_name").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}
