package recordings

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
	"github.com/pulsecast/backend/pkg/response"
)

// StreamFinder resolves stream slugs to records.
type StreamFinder interface {
	FindBySlug(ctx context.Context, slug string) (*models.Stream, error)
}

// Handler serves the public recordings listing.
type Handler struct {
	repo    *Repository
	streams StreamFinder
	logger  *zap.Logger
}

// NewHandler creates a recordings handler.
func NewHandler(repo *Repository, streams StreamFinder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, streams: streams, logger: logger}
}

// ListByStream handles GET /streams/:slug/recordings.
func (h *Handler) ListByStream(c *gin.Context) {
	slug := c.Param("slug")
	stream, err := h.streams.FindBySlug(c.Request.Context(), slug)
	if err != nil {
		h.logger.Error("stream lookup failed", zap.Error(err), zap.String("slug", slug))
		response.Internal(c, "failed to load stream")
		return
	}
	if stream == nil {
		response.NotFound(c, "stream not found")
		return
	}

	list, err := h.repo.ListByStream(c.Request.Context(), stream.ID)
	if err != nil {
		h.logger.Error("list recordings failed", zap.Error(err), zap.String("slug", slug))
		response.Internal(c, "failed to list recordings")
		return
	}
	if list == nil {
		list = []models.Recording{}
	}
	response.OK(c, list)
}
