package services

import (
	"context"
	"errors"
	"fmt"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/middlewares"
	"gcoin-shop/internal/repository"
	"github.com/google/uuid"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultClaimReward   = 100
	DefaultNotifyTimeout = 3 * time.Second
)

var (
	ErrAccountNotLinked = errors.New("account is not linked")
	ErrInvalidItem      = middlewares.ErrInvalidItem
	ErrInvalidHandle    = middlewares.ErrInvalidHandle
)

type Notifier interface {
	Notify(ctx context.Context, recipientID, text string) error
}

type ShopConfig struct {
	ClaimReward   int
	LinkPolicy    models.LinkPolicy
	OwnerID       string
	NotifyTimeout time.Duration
}

type ShopService struct {
	log      *slog.Logger
	store    repository.Store
	notifier Notifier
	cfg      ShopConfig
	now      func() time.Time
}

func NewShopService(log *slog.Logger, store repository.Store, notifier Notifier, cfg ShopConfig) *ShopService {
	if cfg.ClaimReward <= 0 {
		cfg.ClaimReward = DefaultClaimReward
	}
	if cfg.LinkPolicy == "" {
		cfg.LinkPolicy = models.LinkPolicyBoth
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}

	return &ShopService{
		log:      log,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Purchase debits the item price, takes one unit of stock and records an
// order in a single transaction. The owner is notified after commit.
func (s *ShopService) Purchase(ctx context.Context, userID string, itemID uuid.UUID) (dto.Receipt, error) {
	const op = "services.ShopService.Purchase"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("item_id", itemID.String()),
	)

	log.Info("buying item")

	var (
		receipt dto.Receipt
		account models.Account
	)

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		item, err := tx.LockItem(ctx, itemID)
		if err != nil {
			return err
		}

		account, err = tx.LockAccount(ctx, userID)
		if err != nil {
			return err
		}

		if s.cfg.LinkPolicy.RequiredForPurchase() && !account.IsLinked() {
			return ErrAccountNotLinked
		}

		if account.Balance < item.Price {
			return repository.ErrInsufficientFunds
		}

		if item.Stock <= 0 {
			return repository.ErrOutOfStock
		}

		balance, err := tx.AdjustBalance(ctx, userID, -item.Price)
		if err != nil {
			return err
		}

		if _, err := tx.DecrementStock(ctx, item.ID, 1); err != nil {
			return err
		}

		order, err := tx.SaveOrder(ctx, models.Order{
			UserID:    userID,
			ItemID:    item.ID,
			ItemName:  item.Name,
			Price:     item.Price,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}

		receipt = dto.Receipt{
			OrderID:          order.ID,
			OrderNumber:      order.Number,
			ItemName:         item.Name,
			PricePaid:        item.Price,
			RemainingBalance: balance,
		}

		return nil
	})
	if err != nil {
		logFailure(log, "failed to buy item", err)
		return dto.Receipt{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("bought item", slog.Int64("order_number", receipt.OrderNumber))

	if s.cfg.OwnerID != "" {
		s.notify(ctx, log, s.cfg.OwnerID, purchaseMessage(account, receipt))
	}

	return receipt, nil
}

// ClaimDaily credits the daily reward at most once per 24 hours.
func (s *ShopService) ClaimDaily(ctx context.Context, userID string, now time.Time) (int, error) {
	const op = "services.ShopService.ClaimDaily"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
	)

	log.Info("claiming daily reward")

	var balance int
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		account, err := tx.LockAccount(ctx, userID)
		if err != nil {
			return err
		}

		if s.cfg.LinkPolicy.RequiredForClaim() && !account.IsLinked() {
			return ErrAccountNotLinked
		}

		if !account.CanClaim(now) {
			return repository.ErrClaimCooldownActive
		}

		balance, err = tx.RecordClaim(ctx, userID, now, s.cfg.ClaimReward)
		return err
	})
	if err != nil {
		logFailure(log, "failed to claim daily reward", err)
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("daily reward claimed", slog.Int("balance", balance))

	s.notify(ctx, log, userID,
		fmt.Sprintf("You claimed %d G-Coin. Your balance is now %d G-Coin.", s.cfg.ClaimReward, balance))

	return balance, nil
}

func (s *ShopService) ClaimReward() int {
	return s.cfg.ClaimReward
}

// LinkAccount accepts a bare handle or a profile URL and stores the handle.
func (s *ShopService) LinkAccount(ctx context.Context, userID, input string) (string, error) {
	const op = "services.ShopService.LinkAccount"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
	)

	handle, err := middlewares.ParseHandle(input)
	if err != nil {
		log.Info("invalid handle", slog.String("input", input))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.SetLinkedHandle(ctx, userID, handle); err != nil {
		log.Error("failed to link account", slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account linked", slog.String("handle", handle))

	return handle, nil
}

func (s *ShopService) GetBalance(ctx context.Context, userID string) (int, error) {
	const op = "services.ShopService.GetBalance"

	account, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return account.Balance, nil
}

func (s *ShopService) GetInfo(ctx context.Context, userID string) (dto.InfoResponse, error) {
	const op = "services.ShopService.GetInfo"

	account, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return dto.InfoResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	inventory, err := s.store.GetUserInventory(ctx, userID)
	if err != nil {
		return dto.InfoResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	return dto.InfoResponse{
		UserID:       account.UserID,
		LinkedHandle: account.LinkedHandle,
		Coins:        account.Balance,
		LastClaimAt:  account.LastClaimAt,
		Inventory:    inventory,
	}, nil
}

func (s *ShopService) ListItems(ctx context.Context) ([]models.MarketItem, error) {
	const op = "services.ShopService.ListItems"

	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func (s *ShopService) AddItem(ctx context.Context, name string, price, stock int, imageURL *string) (models.MarketItem, error) {
	const op = "services.ShopService.AddItem"

	log := s.log.With(
		slog.String("op", op),
		slog.String("name", name),
	)

	if err := middlewares.CheckItem(name, price, stock, imageURL); err != nil {
		log.Info("invalid item", slog.String("error", err.Error()))
		return models.MarketItem{}, fmt.Errorf("%s: %w", op, err)
	}

	item, err := s.store.AddItem(ctx, models.MarketItem{
		Name:     strings.TrimSpace(name),
		Price:    price,
		Stock:    stock,
		ImageURL: imageURL,
	})
	if err != nil {
		log.Error("failed to add item", slog.String("error", err.Error()))
		return models.MarketItem{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("item added", slog.String("item_id", item.ID.String()))

	return item, nil
}

// RemoveItem removes the earliest added item with the given name.
func (s *ShopService) RemoveItem(ctx context.Context, name string) error {
	const op = "services.ShopService.RemoveItem"

	log := s.log.With(
		slog.String("op", op),
		slog.String("name", name),
	)

	if err := s.store.RemoveItem(ctx, name); err != nil {
		logFailure(log, "failed to remove item", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("item removed")

	return nil
}

func (s *ShopService) RemoveItemByID(ctx context.Context, id uuid.UUID) error {
	const op = "services.ShopService.RemoveItemByID"

	log := s.log.With(
		slog.String("op", op),
		slog.String("item_id", id.String()),
	)

	if err := s.store.RemoveItemByID(ctx, id); err != nil {
		logFailure(log, "failed to remove item", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("item removed")

	return nil
}

// AdjustBalance is the administrative credit or debit of an account.
func (s *ShopService) AdjustBalance(ctx context.Context, userID string, delta int) (int, error) {
	const op = "services.ShopService.AdjustBalance"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.Int("delta", delta),
	)

	balance, err := s.store.AdjustBalance(ctx, userID, delta)
	if err != nil {
		logFailure(log, "failed to adjust balance", err)
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("balance adjusted", slog.Int("balance", balance))

	return balance, nil
}

func (s *ShopService) notify(ctx context.Context, log *slog.Logger, recipientID, text string) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, recipientID, text); err != nil {
		log.Warn("failed to send notification",
			slog.String("recipient_id", recipientID),
			slog.String("error", err.Error()),
		)
	}
}

func purchaseMessage(account models.Account, receipt dto.Receipt) string {
	handle := "not linked"
	if account.IsLinked() {
		handle = "@" + *account.LinkedHandle
	}

	return fmt.Sprintf("Order #%d: user %s (%s) bought %s for %d G-Coin.",
		receipt.OrderNumber, account.UserID, handle, receipt.ItemName, receipt.PricePaid)
}

// IsExpected reports whether err is a user-facing outcome rather than a failure.
func IsExpected(err error) bool {
	for _, target := range []error{
		ErrAccountNotLinked,
		ErrInvalidItem,
		ErrInvalidHandle,
		repository.ErrInsufficientFunds,
		repository.ErrBalanceLimit,
		repository.ErrOutOfStock,
		repository.ErrItemNotFound,
		repository.ErrClaimCooldownActive,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func logFailure(log *slog.Logger, msg string, err error) {
	if IsExpected(err) {
		log.Info(msg, slog.String("reason", err.Error()))
		return
	}
	log.Error(msg, slog.String("error", err.Error()))
}
