package announcements

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
	"github.com/pulsecast/backend/pkg/response"
)

// Store is the persistence surface the handler needs.
type Store interface {
	ListActive(ctx context.Context, now time.Time) ([]models.Announcement, error)
	List(ctx context.Context) ([]models.Announcement, error)
	Create(ctx context.Context, a *models.Announcement) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// CreateRequest is the body for POST /platform/announcements.
type CreateRequest struct {
	Title     string     `json:"title" binding:"required"`
	Message   string     `json:"message" binding:"required"`
	Type      string     `json:"type"`
	Priority  string     `json:"priority"`
	Active    *bool      `json:"active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// ToggleRequest is the body for PATCH /platform/announcements/:id/toggle.
type ToggleRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// Handler handles announcement HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an announcements handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// ListActive handles GET /announcements (public). Only active, unexpired
// announcements are shown to viewers.
func (h *Handler) ListActive(c *gin.Context) {
	list, err := h.store.ListActive(c.Request.Context(), time.Now())
	if err != nil {
		h.logger.Error("list announcements failed", zap.Error(err))
		response.Internal(c, "failed to list announcements")
		return
	}
	if list == nil {
		list = []models.Announcement{}
	}
	response.OK(c, list)
}

// List handles GET /platform/announcements (operator).
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list announcements")
		return
	}
	if list == nil {
		list = []models.Announcement{}
	}
	response.OK(c, list)
}

// Create handles POST /platform/announcements (operator).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	a := models.Announcement{
		Title:     req.Title,
		Message:   req.Message,
		Type:      models.AnnouncementGeneral,
		Priority:  "medium",
		Active:    true,
		ExpiresAt: req.ExpiresAt,
	}
	switch req.Type {
	case "":
	case string(models.AnnouncementGeneral), string(models.AnnouncementSchedule),
		string(models.AnnouncementTechnical), string(models.AnnouncementPromotion):
		a.Type = models.AnnouncementType(req.Type)
	default:
		response.BadRequest(c, "invalid type")
		return
	}
	switch req.Priority {
	case "":
	case "low", "medium", "high":
		a.Priority = req.Priority
	default:
		response.BadRequest(c, "invalid priority")
		return
	}
	if req.Active != nil {
		a.Active = *req.Active
	}
	if a.Expired(time.Now()) {
		response.BadRequest(c, "expires_at is in the past")
		return
	}

	if err := h.store.Create(c.Request.Context(), &a); err != nil {
		h.logger.Error("create announcement failed", zap.Error(err))
		response.Internal(c, "failed to create announcement")
		return
	}
	response.Created(c, a)
}

// Toggle handles PATCH /platform/announcements/:id/toggle (operator).
func (h *Handler) Toggle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid announcement id")
		return
	}
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ok, err := h.store.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		response.Internal(c, "failed to update announcement")
		return
	}
	if !ok {
		response.NotFound(c, "announcement not found")
		return
	}
	response.OK(c, gin.H{"active": *req.Active})
}

// Delete handles DELETE /platform/announcements/:id (operator).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid announcement id")
		return
	}
	ok, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to delete announcement")
		return
	}
	if !ok {
		response.NotFound(c, "announcement not found")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
