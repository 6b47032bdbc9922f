package realtime

import (
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
)

// StatusNotifier turns status transitions into viewer-facing stream updates.
// With a publisher configured the update goes through Redis only, so the
// subscribing hub broadcasts exactly once per instance (including this one);
// otherwise it is delivered straight to the local hub.
type StatusNotifier struct {
	pub    *RedisPubSub
	hub    *Hub
	logger *zap.Logger
}

// NewStatusNotifier creates a notifier. Either pub or hub may be nil.
func NewStatusNotifier(pub *RedisPubSub, hub *Hub, logger *zap.Logger) *StatusNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusNotifier{pub: pub, hub: hub, logger: logger}
}

// StreamStatusChanged publishes a stream update for an applied transition.
func (n *StatusNotifier) StreamStatusChanged(stream *models.Stream, status models.StreamStatus, _ *models.PlatformStatus) {
	update := models.StreamUpdate{
		Status:        status,
		PlaybackID:    stream.PlaybackID,
		Title:         stream.Title,
		Description:   stream.Description,
		Slug:          stream.Slug,
		ScheduledDate: stream.ScheduledAt,
	}
	if n.pub != nil {
		if err := n.pub.PublishStreamUpdate(update); err != nil {
			n.logger.Warn("publish stream update failed", zap.Error(err))
			if n.hub != nil {
				n.hub.Broadcast(update)
			}
		}
		return
	}
	if n.hub != nil {
		n.hub.Broadcast(update)
	}
}
