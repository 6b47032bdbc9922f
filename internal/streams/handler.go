package streams

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
	"github.com/pulsecast/backend/pkg/response"
)

// StatusDocument is the public payload of GET /stream/status.
type StatusDocument struct {
	Status           models.StreamStatus `json:"status"`
	PlaybackID       string              `json:"playbackId,omitempty"`
	Title            string              `json:"title,omitempty"`
	Description      string              `json:"description,omitempty"`
	Slug             string              `json:"slug,omitempty"`
	ScheduledDate    *time.Time          `json:"scheduledDate,omitempty"`
	IsLive           bool                `json:"isLive"`
	PlatformStatus   string              `json:"platformStatus,omitempty"`
	PlatformStreamID string              `json:"platformStreamId,omitempty"`
	RecentAssets     []string            `json:"recentAssets,omitempty"`
	Message          string              `json:"message,omitempty"`
}

// StreamProvider supplies stream records for the public read path.
type StreamProvider interface {
	Current(ctx context.Context) (*models.Stream, error)
	FindBySlug(ctx context.Context, slug string) (*models.Stream, error)
	List(ctx context.Context) ([]models.Stream, error)
}

// Reconciler computes the effective status for a record, correcting the store
// when the platform disagrees.
type Reconciler interface {
	Reconcile(ctx context.Context, stream *models.Stream) (models.StreamStatus, *models.PlatformStatus)
}

// DocumentCache caches the composed status document for a short TTL.
type DocumentCache interface {
	Get(ctx context.Context) (*StatusDocument, bool)
	Set(ctx context.Context, doc *StatusDocument)
}

// Handler serves the public stream read endpoints.
type Handler struct {
	provider          StreamProvider
	reconciler        Reconciler
	cache             DocumentCache
	defaultPlaybackID string
	logger            *zap.Logger
}

// NewHandler creates a streams handler. cache may be nil (no caching).
func NewHandler(provider StreamProvider, reconciler Reconciler, cache DocumentCache, defaultPlaybackID string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		provider:          provider,
		reconciler:        reconciler,
		cache:             cache,
		defaultPlaybackID: defaultPlaybackID,
		logger:            logger,
	}
}

// Status handles GET /stream/status. The response is total: collaborator
// failures degrade to the declared or default status, never to an error page.
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		if doc, ok := h.cache.Get(ctx); ok {
			c.JSON(200, doc)
			return
		}
	}

	doc := h.buildStatus(ctx)
	if h.cache != nil {
		h.cache.Set(ctx, doc)
	}
	c.JSON(200, doc)
}

func (h *Handler) buildStatus(ctx context.Context) *StatusDocument {
	stream, err := h.provider.Current(ctx)
	if err != nil {
		h.logger.Warn("load current stream failed", zap.Error(err))
	}
	if stream == nil {
		return &StatusDocument{
			Status:     models.StatusOffline,
			PlaybackID: h.defaultPlaybackID,
			Message:    "No active stream configured",
		}
	}

	effective, platformStatus := h.reconciler.Reconcile(ctx, stream)

	doc := &StatusDocument{
		Status:           effective,
		PlaybackID:       stream.PlaybackID,
		Title:            stream.Title,
		Description:      stream.Description,
		Slug:             stream.Slug,
		ScheduledDate:    stream.ScheduledAt,
		IsLive:           effective == models.StatusLive,
		PlatformStreamID: stream.PlatformStreamID,
	}
	if doc.PlaybackID == "" {
		doc.PlaybackID = h.defaultPlaybackID
	}
	if platformStatus != nil {
		doc.PlatformStatus = platformStatus.RawState
		doc.RecentAssets = platformStatus.RecentAssetIDs
	}
	return doc
}

// List handles GET /streams (archive, most recent first).
func (h *Handler) List(c *gin.Context) {
	list, err := h.provider.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list streams failed", zap.Error(err))
		response.Internal(c, "failed to list streams")
		return
	}
	if list == nil {
		list = []models.Stream{}
	}
	response.OK(c, list)
}

// GetBySlug handles GET /streams/:slug.
func (h *Handler) GetBySlug(c *gin.Context) {
	stream, err := h.provider.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.logger.Error("find stream failed", zap.Error(err), zap.String("slug", c.Param("slug")))
		response.Internal(c, "failed to load stream")
		return
	}
	if stream == nil {
		response.NotFound(c, "stream not found")
		return
	}
	response.OK(c, stream)
}
