package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/pkg/logger"
)

// DefaultQueueKey is the Redis list shared by the API producers and the
// delivery worker binary.
const DefaultQueueKey = "notify:delivery"

// RedisQueue pushes delivery jobs onto a Redis list so dispatch can run
// out-of-process. It satisfies Enqueuer on the producer side; the
// worker binary drains it with Consume.
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *logger.Logger
}

func NewRedisQueue(client *redis.Client, key string, lg *logger.Logger) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, logger: lg}
}

// Enqueue is fire-and-forget: a failed push is logged, never surfaced
// to the producer (the notification itself is already stored).
func (q *RedisQueue) Enqueue(n *model.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		q.logger.ZL.Error().Err(err).Str("notification_id", n.ID).Msg("failed to encode delivery job")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		q.logger.ZL.Error().Err(err).Str("notification_id", n.ID).Msg("failed to enqueue delivery job")
	}
}

// Consume blocks on the queue and hands each decoded job to handler
// until ctx is cancelled.
func (q *RedisQueue) Consume(ctx context.Context, handler func(*model.Notification)) error {
	for {
		res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			q.logger.ZL.Warn().Err(err).Msg("delivery queue pop failed")
			continue
		}
		if len(res) != 2 {
			continue
		}

		var n model.Notification
		if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
			q.logger.ZL.Error().Err(err).Msg("failed to decode delivery job, discarding")
			continue
		}
		handler(&n)
	}
}

// Depth reports the current queue length, used by the worker's
// readiness probe.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return depth, nil
}
