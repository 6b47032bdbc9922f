package streams

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const statusCacheKey = "stream:status:current"

// StatusCache is a short-TTL Redis cache for the composed status document.
// The effective status is computed, never stored durably; this cache only
// absorbs poll bursts from viewers.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatusCache creates a status document cache.
func NewStatusCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatusCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &StatusCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached document, or (nil, false) on miss or cache failure.
func (c *StatusCache) Get(ctx context.Context) (*StatusDocument, bool) {
	raw, err := c.client.Get(ctx, statusCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("status cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var doc StatusDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

// Set stores the document for the configured TTL. Failures are logged only;
// the cache is best-effort.
func (c *StatusCache) Set(ctx context.Context, doc *StatusDocument) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statusCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("status cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached document so the next read recomputes it.
func (c *StatusCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, statusCacheKey).Err(); err != nil {
		c.logger.Warn("status cache invalidate failed", zap.Error(err))
	}
}
