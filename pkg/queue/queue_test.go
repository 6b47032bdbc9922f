package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQueue(client, nil), client
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	streamID := uuid.New()
	require.NoError(t, q.EnqueueReconcile(ctx, ReconcilePayload{StreamID: streamID, Reason: "sweep"}))

	job, key, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, QueueReconcile, key)
	assert.Equal(t, JobTypeReconcile, job.Type)
	assert.Equal(t, 0, job.Attempt)
	assert.NotEmpty(t, job.ID)

	var payload ReconcilePayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, streamID, payload.StreamID)
	assert.Equal(t, "sweep", payload.Reason)
}

func TestRetryRequeuesWithIncrementedAttempt(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueReconcile(ctx, ReconcilePayload{StreamID: uuid.New()}))
	job, _, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, q.Retry(ctx, job))

	retried, _, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, retried)
	assert.Equal(t, job.ID, retried.ID)
	assert.Equal(t, 1, retried.Attempt)
}

func TestRetryExhaustionMovesToDLQ(t *testing.T) {
	q, client := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueReconcile(ctx, ReconcilePayload{StreamID: uuid.New()}))
	job, _, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)

	for job.Attempt < MaxRetries {
		require.NoError(t, q.Retry(ctx, job))
		if job.Attempt >= MaxRetries {
			break
		}
		job, _, err = q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
	}

	assert.Equal(t, int64(1), client.LLen(ctx, QueueDLQ).Val(), "exhausted job lands in DLQ")
	assert.Equal(t, int64(0), client.LLen(ctx, QueueReconcile).Val())
}
