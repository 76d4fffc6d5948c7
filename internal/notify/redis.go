package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "gcoin:notifications"

// RedisNotifier appends messages to a list and publishes them on a channel
// of the same name, so both polling and subscribed consumers see them.
type RedisNotifier struct {
	rdb *redis.Client
	key string
}

func NewRedisNotifier(rdb *redis.Client, key string) *RedisNotifier {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisNotifier{rdb: rdb, key: key}
}

func (n *RedisNotifier) Notify(ctx context.Context, recipientID, text string) error {
	const op = "notify.redis.Notify"

	payload, err := json.Marshal(newMessage(recipientID, text))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pipe := n.rdb.TxPipeline()
	pipe.RPush(ctx, n.key, payload)
	pipe.Publish(ctx, n.key, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close leaves the shared connection open; its owner closes it.
func (n *RedisNotifier) Close() error {
	return nil
}
