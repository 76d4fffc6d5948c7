// Package redis keeps refresh tokens in Redis with a TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"gcoin-shop/internal/repository"
	"github.com/redis/go-redis/v9"
	"time"
)

const refreshKeyPrefix = "gcoin:refresh:"

type Storage struct {
	db         *redis.Client
	refreshTTL time.Duration
}

func InitRedis(ctx context.Context, addr, password string, db int, refreshTTL time.Duration) (*Storage, error) {
	const op = "storage.redis.InitRedis"

	redisClient := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: redisClient, refreshTTL: refreshTTL}, nil
}

// Client exposes the connection so other components can share it.
func (s *Storage) Client() *redis.Client {
	return s.db
}

func (s *Storage) StoreRefreshToken(ctx context.Context, userID, refreshToken string) error {
	const op = "storage.redis.StoreRefreshToken"

	if err := s.db.Set(ctx, refreshKeyPrefix+refreshToken, userID, s.refreshTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConsumeRefreshToken returns the owner of the token and deletes it, so a
// refresh token can be used once.
func (s *Storage) ConsumeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	const op = "storage.redis.ConsumeRefreshToken"

	userID, err := s.db.GetDel(ctx, refreshKeyPrefix+refreshToken).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, repository.ErrTokenNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return userID, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
