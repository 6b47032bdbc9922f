package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
)

const (
	updatesChannel = "stream:updates"
	publishTimeout = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance broadcast.
type redisPayload struct {
	Update models.StreamUpdate `json:"update"`
	At     int64               `json:"at"`
}

// RedisPubSub bridges stream updates across server instances via Redis
// pub/sub. The server's hub subscribes; any instance (server or worker) may
// publish.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for stream updates.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// PublishStreamUpdate publishes an update to the shared channel.
func (r *RedisPubSub) PublishStreamUpdate(update models.StreamUpdate) error {
	body, err := json.Marshal(redisPayload{Update: update, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, updatesChannel, body).Err()
}

// SubscribeStreamUpdates subscribes to the shared channel and calls handler
// for each update until ctx is done.
func (r *RedisPubSub) SubscribeStreamUpdates(ctx context.Context, handler func(update models.StreamUpdate)) error {
	pubsub := r.client.Subscribe(ctx, updatesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var p redisPayload
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				r.logger.Warn("invalid stream update payload", zap.Error(err))
				continue
			}
			handler(p.Update)
		}
	}
}
