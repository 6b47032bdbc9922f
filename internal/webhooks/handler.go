package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
	"github.com/pulsecast/backend/pkg/queue"
	"github.com/pulsecast/backend/pkg/response"
)

// Platform event types.
const (
	EventStreamActive       = "video.live_stream.active"
	EventStreamIdle         = "video.live_stream.idle"
	EventStreamCreated      = "video.live_stream.created"
	EventStreamDisconnected = "video.live_stream.disconnected"
	EventAssetCreated       = "video.asset.created"
)

// Event is the platform webhook envelope.
type Event struct {
	Type string    `json:"type"`
	ID   string    `json:"id,omitempty"` // delivery id, used for dedup when present
	Data EventData `json:"data"`
}

// EventData is the event subject.
type EventData struct {
	ID             string              `json:"id"`
	Status         string              `json:"status,omitempty"`
	PlaybackIDs    []EventPlaybackID   `json:"playback_ids,omitempty"`
	RecentAssetIDs []string            `json:"recent_asset_ids,omitempty"`
	LiveStreamID   string              `json:"live_stream_id,omitempty"`
	Duration       float64             `json:"duration,omitempty"`
}

// EventPlaybackID is one playback id entry in an event payload.
type EventPlaybackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy,omitempty"`
}

func (d EventData) firstPlaybackID() string {
	if len(d.PlaybackIDs) == 0 {
		return ""
	}
	return d.PlaybackIDs[0].ID
}

// StreamResolver resolves and corrects stream records for webhook events.
type StreamResolver interface {
	FindByPlatformID(ctx context.Context, platformStreamID string) (*models.Stream, error)
	FindByPlaybackID(ctx context.Context, playbackID string) (*models.Stream, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.StreamStatus) error
}

// RecordingStore persists asset references from asset-created events.
type RecordingStore interface {
	Create(ctx context.Context, rec *models.Recording) error
}

// Deduper tracks delivery ids.
type Deduper interface {
	Seen(ctx context.Context, deliveryID string) bool
}

// Notifier pushes status transitions to viewers.
type Notifier interface {
	StreamStatusChanged(stream *models.Stream, status models.StreamStatus, platformStatus *models.PlatformStatus)
}

// Enqueuer schedules reconcile jobs.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, payload queue.ReconcilePayload) error
}

// Handler is the event intake for platform webhooks. Persistence failures are
// logged and still acknowledged with 200: the platform retries on non-2xx,
// and a retry storm is worse than a missed write that the next poll corrects.
// Only authentication failures and unparseable bodies are rejected.
type Handler struct {
	streams    StreamResolver
	recordings RecordingStore
	dedup      Deduper
	queue      Enqueuer
	notifier   Notifier
	secret     string
	now        func() time.Time
	logger     *zap.Logger
}

// NewHandler creates a webhook handler. recordings, dedup, queue and notifier
// may each be nil; secret empty disables signature verification.
func NewHandler(streams StreamResolver, recordings RecordingStore, dedup Deduper, q Enqueuer, notifier Notifier, secret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		streams:    streams,
		recordings: recordings,
		dedup:      dedup,
		queue:      q,
		notifier:   notifier,
		secret:     secret,
		now:        time.Now,
		logger:     logger,
	}
}

// Handle handles POST /platform/webhooks.
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Internal(c, "failed to read body")
		return
	}

	if h.secret != "" {
		if err := VerifySignature(h.secret, c.GetHeader(SignatureHeader), body, h.now()); err != nil {
			h.logger.Warn("webhook signature rejected", zap.Error(err))
			response.Unauthorized(c, "invalid webhook signature")
			return
		}
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("unparseable webhook body", zap.Error(err))
		response.Internal(c, "webhook processing failed")
		return
	}

	if h.dedup != nil && event.ID != "" && h.dedup.Seen(c.Request.Context(), event.ID) {
		h.logger.Debug("duplicate webhook delivery skipped", zap.String("delivery_id", event.ID))
		c.JSON(http.StatusOK, gin.H{"success": true, "duplicate": true})
		return
	}

	h.logger.Info("webhook received", zap.String("type", event.Type), zap.String("subject_id", event.Data.ID))

	ctx := c.Request.Context()
	switch event.Type {
	case EventStreamActive:
		h.applyStatus(ctx, event.Data, models.StatusLive)
	case EventStreamIdle, EventStreamDisconnected:
		h.applyStatus(ctx, event.Data, models.StatusOffline)
	case EventStreamCreated:
		// Informational: operators bind new platform ids out-of-band.
		h.logger.Info("platform stream created",
			zap.String("platform_stream_id", event.Data.ID),
			zap.String("playback_id", event.Data.firstPlaybackID()))
	case EventAssetCreated:
		h.handleAssetCreated(ctx, event.Data)
	default:
		h.logger.Info("unhandled webhook event type", zap.String("type", event.Type))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Processed " + event.Type + " event"})
}

// applyStatus resolves the affected record and writes the status directly:
// the webhook is the platform's authoritative transition, so the conjunction
// check of the poll path does not apply here.
func (h *Handler) applyStatus(ctx context.Context, data EventData, status models.StreamStatus) {
	stream := h.resolve(ctx, data)
	if stream == nil {
		// Never create a record implicitly; misdirected webhooks must not
		// produce ghost records.
		h.logger.Info("no stream record for webhook subject",
			zap.String("platform_stream_id", data.ID),
			zap.String("playback_id", data.firstPlaybackID()))
		return
	}
	if stream.Status.OperatorControlled() {
		h.logger.Info("webhook ignored for operator-controlled stream",
			zap.String("stream_id", stream.ID.String()),
			zap.String("declared", string(stream.Status)))
		return
	}
	if stream.Status == status {
		return
	}
	if err := h.streams.UpdateStatus(ctx, stream.ID, status); err != nil {
		h.logger.Error("webhook status write failed",
			zap.Error(err),
			zap.String("stream_id", stream.ID.String()),
			zap.String("to", string(status)))
		return
	}
	h.logger.Info("stream status updated via webhook",
		zap.String("stream_id", stream.ID.String()),
		zap.String("from", string(stream.Status)),
		zap.String("to", string(status)))
	if h.notifier != nil {
		h.notifier.StreamStatusChanged(stream, status, nil)
	}
}

func (h *Handler) resolve(ctx context.Context, data EventData) *models.Stream {
	stream, err := h.streams.FindByPlatformID(ctx, data.ID)
	if err != nil {
		h.logger.Warn("stream lookup by platform id failed", zap.Error(err), zap.String("platform_stream_id", data.ID))
	}
	if stream != nil {
		return stream
	}
	playbackID := data.firstPlaybackID()
	if playbackID == "" {
		return nil
	}
	stream, err = h.streams.FindByPlaybackID(ctx, playbackID)
	if err != nil {
		h.logger.Warn("stream lookup by playback id failed", zap.Error(err), zap.String("playback_id", playbackID))
	}
	return stream
}

// handleAssetCreated associates a new platform asset with its stream record
// and schedules a reconcile so the poll path re-evaluates liveness now that a
// recent asset exists.
func (h *Handler) handleAssetCreated(ctx context.Context, data EventData) {
	if data.LiveStreamID == "" {
		return
	}
	stream, err := h.streams.FindByPlatformID(ctx, data.LiveStreamID)
	if err != nil || stream == nil {
		if err != nil {
			h.logger.Warn("stream lookup for asset failed", zap.Error(err), zap.String("platform_stream_id", data.LiveStreamID))
		}
		return
	}
	if h.recordings != nil {
		rec := &models.Recording{
			StreamID:         stream.ID,
			AssetID:          data.ID,
			PlatformStreamID: data.LiveStreamID,
			PlaybackID:       data.firstPlaybackID(),
			Duration:         data.Duration,
		}
		if err := h.recordings.Create(ctx, rec); err != nil {
			h.logger.Error("record asset failed", zap.Error(err), zap.String("asset_id", data.ID))
		}
	}
	if h.queue != nil {
		if err := h.queue.EnqueueReconcile(ctx, queue.ReconcilePayload{StreamID: stream.ID, Reason: "asset_created"}); err != nil {
			h.logger.Error("enqueue reconcile failed", zap.Error(err), zap.String("stream_id", stream.ID.String()))
		}
	}
}
