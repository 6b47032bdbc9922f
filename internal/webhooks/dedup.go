package webhooks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dedupKeyPrefix = "webhook:event:"

// RedisDeduper tracks delivery ids so platform retries of already-processed
// events are acknowledged without reprocessing.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDeduper creates a delivery-id deduper.
func NewRedisDeduper(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisDeduper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl, logger: logger}
}

// Seen marks the delivery id and reports whether it was already recorded.
// A Redis failure reports unseen: duplicate processing is harmless (writes are
// idempotent last-writer-wins) while a dropped event is not.
func (d *RedisDeduper) Seen(ctx context.Context, deliveryID string) bool {
	ok, err := d.client.SetNX(ctx, dedupKeyPrefix+deliveryID, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("webhook dedup check failed", zap.Error(err), zap.String("delivery_id", deliveryID))
		return false
	}
	return !ok
}
