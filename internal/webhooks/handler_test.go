package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
	"github.com/pulsecast/backend/pkg/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type statusWrite struct {
	id     uuid.UUID
	status models.StreamStatus
}

type fakeResolver struct {
	byPlatformID map[string]*models.Stream
	byPlaybackID map[string]*models.Stream
	writes       []statusWrite
}

func (f *fakeResolver) FindByPlatformID(_ context.Context, id string) (*models.Stream, error) {
	return f.byPlatformID[id], nil
}

func (f *fakeResolver) FindByPlaybackID(_ context.Context, id string) (*models.Stream, error) {
	return f.byPlaybackID[id], nil
}

func (f *fakeResolver) UpdateStatus(_ context.Context, id uuid.UUID, status models.StreamStatus) error {
	f.writes = append(f.writes, statusWrite{id: id, status: status})
	return nil
}

type fakeRecordings struct {
	created []*models.Recording
}

func (f *fakeRecordings) Create(_ context.Context, rec *models.Recording) error {
	f.created = append(f.created, rec)
	return nil
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) Seen(_ context.Context, id string) bool {
	if f.seen[id] {
		return true
	}
	f.seen[id] = true
	return false
}

type fakeEnqueuer struct {
	payloads []queue.ReconcilePayload
}

func (f *fakeEnqueuer) EnqueueReconcile(_ context.Context, p queue.ReconcilePayload) error {
	f.payloads = append(f.payloads, p)
	return nil
}

func postEvent(t *testing.T, h *Handler, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/platform/webhooks", h.Handle)

	req := httptest.NewRequest(http.MethodPost, "/platform/webhooks", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func eventBody(t *testing.T, event Event) []byte {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return raw
}

func TestStreamActiveTransitionsKnownStreamToLive(t *testing.T) {
	stream := &models.Stream{ID: uuid.New(), Status: models.StatusOffline, PlatformStreamID: "p1"}
	resolver := &fakeResolver{byPlatformID: map[string]*models.Stream{"p1": stream}}
	h := NewHandler(resolver, nil, nil, nil, nil, "", zap.NewNop())

	w := postEvent(t, h, eventBody(t, Event{Type: EventStreamActive, Data: EventData{ID: "p1"}}), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resolver.writes, 1)
	assert.Equal(t, stream.ID, resolver.writes[0].id)
	assert.Equal(t, models.StatusLive, resolver.writes[0].status)
}

func TestStreamIdleAndDisconnectedTransitionToOffline(t *testing.T) {
	for _, eventType := range []string{EventStreamIdle, EventStreamDisconnected} {
		stream := &models.Stream{ID: uuid.New(), Status: models.StatusLive, PlatformStreamID: "p1"}
		resolver := &fakeResolver{byPlatformID: map[string]*models.Stream{"p1": stream}}
		h := NewHandler(resolver, nil, nil, nil, nil, "", zap.NewNop())

		w := postEvent(t, h, eventBody(t, Event{Type: eventType, Data: EventData{ID: "p1"}}), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, resolver.writes, 1, eventType)
		assert.Equal(t, models.StatusOffline, resolver.writes[0].status)
	}
}

func TestPlaybackIDFallbackResolution(t *testing.T) {
	stream := &models.Stream{ID: uuid.New(), Status: models.StatusOffline, PlaybackID: "pb1"}
	resolver := &fakeResolver{byPlaybackID: map[string]*models.Stream{"pb1": stream}}
	h := NewHandler(resolver, nil, nil, nil, nil, "", zap.NewNop())

	body := eventBody(t, Event{Type: EventStreamActive, Data: EventData{
		ID:          "unknown-platform-id",
		PlaybackIDs: []EventPlaybackID{{ID: "pb1"}},
	}})
	w := postEvent(t, h, body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resolver.writes, 1)
	assert.Equal(t, stream.ID, resolver.writes[0].id)
}

func TestUnknownSubjectIsDroppedWithoutRecordCreation(t *testing.T) {
	resolver := &fakeResolver{}
	h := NewHandler(resolver, nil, nil, nil, nil, "", zap.NewNop())

	w := postEvent(t, h, eventBody(t, Event{Type: EventStreamActive, Data: EventData{ID: "ghost"}}), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resolver.writes)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
}

func TestOperatorControlledStatusNotClobberedByWebhook(t *testing.T) {
	stream := &models.Stream{ID: uuid.New(), Status: models.StatusArchived, PlatformStreamID: "p1"}
	resolver := &fakeResolver{byPlatformID: map[string]*models.Stream{"p1": stream}}
	h := NewHandler(resolver, nil, nil, nil, nil, "", zap.NewNop())

	w := postEvent(t, h, eventBody(t, Event{Type: EventStreamActive, Data: EventData{ID: "p1"}}), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resolver.writes)
}

func TestUnknownEventTypeAcknowledged(t *testing.T) {
	resolver := &fakeResolver{}
	h := NewHandler(resolver, nil, nil, nil, nil, "", zap.NewNop())

	w := postEvent(t, h, eventBody(t, Event{Type: "video.something.new", Data: EventData{ID: "x"}}), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resolver.writes)
}

func TestMalformedBodyRejected(t *testing.T) {
	h := NewHandler(&fakeResolver{}, nil, nil, nil, nil, "", zap.NewNop())

	w := postEvent(t, h, []byte("{not json"), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSignatureRequiredWhenSecretConfigured(t *testing.T) {
	stream := &models.Stream{ID: uuid.New(), Status: models.StatusOffline, PlatformStreamID: "p1"}
	resolver := &fakeResolver{byPlatformID: map[string]*models.Stream{"p1": stream}}
	h := NewHandler(resolver, nil, nil, nil, nil, "topsecret", zap.NewNop())
	now := time.Unix(1700000000, 0)
	h.now = func() time.Time { return now }

	body := eventBody(t, Event{Type: EventStreamActive, Data: EventData{ID: "p1"}})

	// Missing signature.
	w := postEvent(t, h, body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, resolver.writes, "no state mutation on auth failure")

	// Bad signature.
	w = postEvent(t, h, body, map[string]string{SignatureHeader: Sign("wrong", now, body)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, resolver.writes)

	// Valid signature.
	w = postEvent(t, h, body, map[string]string{SignatureHeader: Sign("topsecret", now, body)})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resolver.writes, 1)
}

func TestDuplicateDeliverySkipped(t *testing.T) {
	stream := &models.Stream{ID: uuid.New(), Status: models.StatusOffline, PlatformStreamID: "p1"}
	resolver := &fakeResolver{byPlatformID: map[string]*models.Stream{"p1": stream}}
	h := NewHandler(resolver, nil, &fakeDeduper{seen: map[string]bool{}}, nil, nil, "", zap.NewNop())

	body := eventBody(t, Event{Type: EventStreamActive, ID: "evt-1", Data: EventData{ID: "p1"}})

	w := postEvent(t, h, body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resolver.writes, 1)

	w = postEvent(t, h, body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resolver.writes, 1, "duplicate delivery must not reprocess")
}

func TestAssetCreatedRecordsRecordingAndEnqueuesReconcile(t *testing.T) {
	stream := &models.Stream{ID: uuid.New(), Status: models.StatusOffline, PlatformStreamID: "p1"}
	resolver := &fakeResolver{byPlatformID: map[string]*models.Stream{"p1": stream}}
	recordings := &fakeRecordings{}
	enqueuer := &fakeEnqueuer{}
	h := NewHandler(resolver, recordings, nil, enqueuer, nil, "", zap.NewNop())

	body := eventBody(t, Event{Type: EventAssetCreated, Data: EventData{
		ID:           "asset-9",
		LiveStreamID: "p1",
		PlaybackIDs:  []EventPlaybackID{{ID: "pb-asset"}},
		Duration:     1234.5,
	}})
	w := postEvent(t, h, body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resolver.writes, "asset-created never mutates status directly")
	require.Len(t, recordings.created, 1)
	assert.Equal(t, "asset-9", recordings.created[0].AssetID)
	assert.Equal(t, stream.ID, recordings.created[0].StreamID)
	require.Len(t, enqueuer.payloads, 1)
	assert.Equal(t, stream.ID, enqueuer.payloads[0].StreamID)
}
