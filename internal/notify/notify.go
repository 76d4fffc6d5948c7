// Package notify delivers direct messages to users after a purchase or a
// daily claim. Delivery is best effort: callers log failures and move on.
package notify

import (
	"context"
	"fmt"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"time"
)

const (
	ProviderLog   = "log"
	ProviderRedis = "redis"
	ProviderAMQP  = "amqp"
)

type Message struct {
	RecipientID string    `json:"recipient_id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notifier interface {
	Notify(ctx context.Context, recipientID, text string) error
	Close() error
}

type Config struct {
	Provider  string
	RedisKey  string
	AMQPURL   string
	AMQPQueue string
}

// New picks the delivery channel. The redis provider reuses rdb and fails
// when it is nil.
func New(cfg Config, log *slog.Logger, rdb *redis.Client) (Notifier, error) {
	const op = "notify.New"

	switch cfg.Provider {
	case "", ProviderLog:
		return NewLogNotifier(log), nil
	case ProviderRedis:
		if rdb == nil {
			return nil, fmt.Errorf("%s: redis provider needs a redis connection", op)
		}
		return NewRedisNotifier(rdb, cfg.RedisKey), nil
	case ProviderAMQP:
		n, err := NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%s: unknown provider %q", op, cfg.Provider)
	}
}

func newMessage(recipientID, text string) Message {
	return Message{
		RecipientID: recipientID,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
	}
}
