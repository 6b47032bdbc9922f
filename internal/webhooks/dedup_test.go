package webhooks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeduper(t *testing.T, ttl time.Duration) (*RedisDeduper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisDeduper(client, ttl, nil), mr
}

func TestDeduperFirstDeliveryUnseen(t *testing.T) {
	d, _ := newTestDeduper(t, time.Hour)
	assert.False(t, d.Seen(context.Background(), "evt-1"))
}

func TestDeduperRepeatDeliverySeen(t *testing.T) {
	d, _ := newTestDeduper(t, time.Hour)
	ctx := context.Background()

	require.False(t, d.Seen(ctx, "evt-1"))
	assert.True(t, d.Seen(ctx, "evt-1"))
	assert.True(t, d.Seen(ctx, "evt-1"))

	// Different delivery ids do not collide.
	assert.False(t, d.Seen(ctx, "evt-2"))
}

func TestDeduperWindowExpires(t *testing.T) {
	d, mr := newTestDeduper(t, time.Hour)
	ctx := context.Background()

	require.False(t, d.Seen(ctx, "evt-1"))
	mr.FastForward(2 * time.Hour)
	assert.False(t, d.Seen(ctx, "evt-1"), "expired delivery id is treated as new")
}

func TestDeduperFailsOpen(t *testing.T) {
	d, mr := newTestDeduper(t, time.Hour)
	mr.Close()

	// Redis being down must not drop events; duplicates are the lesser evil.
	assert.False(t, d.Seen(context.Background(), "evt-1"))
}
