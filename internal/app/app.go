package app

import (
	"context"
	"errors"
	"fmt"
	httpserver "gcoin-shop/internal/app/http-server"
	"gcoin-shop/internal/config"
	"gcoin-shop/internal/handlers"
	"gcoin-shop/internal/lib/jwt"
	"gcoin-shop/internal/middlewares"
	"gcoin-shop/internal/notify"
	"gcoin-shop/internal/repository"
	"gcoin-shop/internal/repository/memory"
	"gcoin-shop/internal/repository/mysql"
	"gcoin-shop/internal/repository/postgres"
	"gcoin-shop/internal/repository/redis"
	"gcoin-shop/internal/routes"
	"gcoin-shop/internal/services"
	"io"
	"log/slog"
	"time"
)

type App struct {
	HTTPServer *httpserver.Server

	log     *slog.Logger
	closers []io.Closer
}

type tokenStore interface {
	services.RefreshTokenStore
	io.Closer
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	a := &App{log: log}

	store, err := newStore(ctx, log, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.closers = append(a.closers, store)

	refreshTTL := 24 * time.Hour * time.Duration(cfg.JWT.RefreshExpirationDays)

	var tokens tokenStore
	var redisDB *redis.Storage
	if cfg.Redis.Addr != "" {
		redisDB, err = redis.InitRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, refreshTTL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tokens = redisDB
	} else {
		log.Warn("REDIS_ADDR is empty, refresh tokens are kept in memory")
		tokens = memory.NewTokenStorage(refreshTTL)
	}

	notifyCfg := notify.Config{
		Provider:  cfg.Notify.Provider,
		RedisKey:  cfg.Notify.RedisKey,
		AMQPURL:   cfg.Notify.AMQPURL,
		AMQPQueue: cfg.Notify.AMQPQueue,
	}
	var notifier notify.Notifier
	if redisDB != nil {
		notifier, err = notify.New(notifyCfg, log, redisDB.Client())
	} else {
		notifier, err = notify.New(notifyCfg, log, nil)
	}
	if err != nil {
		_ = tokens.Close()
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// closed in reverse order: notifier before the redis connection it may share
	a.closers = append(a.closers, tokens, notifier)

	jwtGen := jwt.NewGenerator(
		cfg.JWT.Secret,
		time.Minute*time.Duration(cfg.JWT.AccessExpirationMinutes),
		refreshTTL,
	)

	authService := services.NewAuthService(log, store, tokens, jwtGen, cfg.Auth.GatewayKeyHash, cfg.Auth.AdminIDs)
	shopService := services.NewShopService(log, store, notifier, services.ShopConfig{
		ClaimReward:   cfg.Shop.ClaimReward,
		LinkPolicy:    cfg.Shop.LinkPolicy,
		OwnerID:       cfg.Shop.OwnerID,
		NotifyTimeout: cfg.Notify.Timeout,
	})

	authMiddleware := middlewares.NewAuthMiddleware(jwtGen)

	r := routes.InitRoutes(routes.Handlers{
		Auth:  handlers.NewAuthHandler(log, authService),
		Shop:  handlers.NewShopHandler(log, shopService),
		Admin: handlers.NewAdminHandler(log, shopService),
	}, authMiddleware, cfg.Server.AllowOrigins)

	a.HTTPServer = httpserver.NewServer(log, cfg.Server.Address, cfg.Server.Timeout, r)

	return a, nil
}

func newStore(ctx context.Context, log *slog.Logger, cfg *config.Config) (repository.Store, error) {
	log.Info("opening storage", slog.String("driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageMySQL:
		return mysql.NewMySQL(cfg.Storage.MySQLDSN, log, cfg.Server.Env == "local")
	case config.StoragePostgres:
		return postgres.NewPostgres(ctx, cfg.Storage.PostgresConn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Stop shuts down the http server and then releases storage and brokers.
func (a *App) Stop(ctx context.Context) error {
	err := a.HTTPServer.Stop(ctx)
	return errors.Join(err, a.close())
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Error("failed to close resource", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
