package platform

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
	"github.com/pulsecast/backend/pkg/response"
)

// StreamBinder binds provisioned platform ids into stream records.
type StreamBinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Stream, error)
	Create(ctx context.Context, s *models.Stream) error
	UpdatePlatformInfo(ctx context.Context, id uuid.UUID, platformStreamID, streamKey, playbackID string) error
}

// Handler exposes the operator-facing platform proxy endpoints.
type Handler struct {
	client  *Client
	streams StreamBinder
	logger  *zap.Logger
}

// NewHandler creates a platform proxy handler.
func NewHandler(client *Client, streams StreamBinder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, streams: streams, logger: logger}
}

// CreateRequest is the body for POST /platform/streams.
type CreateRequest struct {
	PlaybackPolicy string `json:"playback_policy"`
	// StreamID binds the new platform stream to an existing record.
	StreamID string `json:"stream_id"`
	// Title creates a new record bound to the platform stream when StreamID is absent.
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Create handles POST /platform/streams: provisions a platform stream and
// optionally binds it to a stream record.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	live, err := h.client.CreateLiveStream(c.Request.Context(), req.PlaybackPolicy)
	if err != nil {
		h.respondClientError(c, err)
		return
	}

	var record *models.Stream
	switch {
	case req.StreamID != "":
		id, err := uuid.Parse(req.StreamID)
		if err != nil {
			response.BadRequest(c, "invalid stream_id")
			return
		}
		record, err = h.streams.GetByID(c.Request.Context(), id)
		if err != nil {
			response.Internal(c, "failed to load stream record")
			return
		}
		if record == nil {
			response.NotFound(c, "stream record not found")
			return
		}
		if err := h.streams.UpdatePlatformInfo(c.Request.Context(), id, live.ID, live.StreamKey, live.FirstPlaybackID()); err != nil {
			h.logger.Error("bind platform stream failed", zap.Error(err), zap.String("stream_id", id.String()))
			response.Internal(c, "failed to bind platform stream")
			return
		}
	case req.Title != "":
		record = &models.Stream{
			Slug:             req.Slug,
			Title:            req.Title,
			Status:           models.StatusOffline,
			PlatformStreamID: live.ID,
			StreamKey:        live.StreamKey,
			PlaybackID:       live.FirstPlaybackID(),
		}
		if err := h.streams.Create(c.Request.Context(), record); err != nil {
			h.logger.Error("create stream record failed", zap.Error(err))
			response.Internal(c, "failed to create stream record")
			return
		}
	}

	data := gin.H{
		"streamId":   live.ID,
		"streamKey":  live.StreamKey,
		"playbackId": live.FirstPlaybackID(),
		"status":     live.Status,
	}
	if record != nil {
		data["recordId"] = record.ID
		data["slug"] = record.Slug
	}
	response.Created(c, data)
}

// List handles GET /platform/streams.
func (h *Handler) List(c *gin.Context) {
	streams, err := h.client.ListLiveStreams(c.Request.Context())
	if err != nil {
		h.respondClientError(c, err)
		return
	}
	live := make([]LiveStream, 0)
	for _, s := range streams {
		if s.IsLive() {
			live = append(live, s)
		}
	}
	response.OK(c, gin.H{
		"streams":           streams,
		"liveStreams":       live,
		"totalStreams":      len(streams),
		"activeLiveStreams": len(live),
	})
}

// Get handles GET /platform/streams/:id.
func (h *Handler) Get(c *gin.Context) {
	s, err := h.client.GetLiveStream(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondClientError(c, err)
		return
	}
	response.OK(c, gin.H{
		"streamId":       s.ID,
		"status":         s.Status,
		"playbackId":     s.FirstPlaybackID(),
		"streamKey":      s.StreamKey,
		"isLive":         s.IsLive(),
		"createdAt":      s.CreatedAt,
		"recentAssetIds": s.RecentAssetIDs,
	})
}

// Delete handles DELETE /platform/streams/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	if err := h.client.DeleteLiveStream(c.Request.Context(), c.Param("id")); err != nil {
		h.respondClientError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *Handler) respondClientError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		response.ServiceUnavailable(c, "platform credentials not configured")
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "platform stream not found")
	default:
		h.logger.Error("platform request failed", zap.Error(err))
		response.ServiceUnavailable(c, "platform unavailable")
	}
}
