package sitesettings

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
	"github.com/pulsecast/backend/pkg/response"
)

// Handler handles site settings HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a site settings handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Get handles GET /settings (public).
func (h *Handler) Get(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}
	if s == nil {
		response.NotFound(c, "settings not configured")
		return
	}
	response.OK(c, s)
}

// Update handles PUT /platform/settings (operator).
func (h *Handler) Update(c *gin.Context) {
	var req models.SiteSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.SiteTitle == "" {
		response.BadRequest(c, "site_title required")
		return
	}
	if err := h.repo.Upsert(c.Request.Context(), &req); err != nil {
		h.logger.Error("save settings failed", zap.Error(err))
		response.Internal(c, "failed to save settings")
		return
	}
	response.OK(c, req)
}
