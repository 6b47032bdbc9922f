package models

import (
	"time"

	"github.com/google/uuid"
)

// Recording is a reference to a platform asset produced by a live stream
// session. The media itself stays on the platform; only the association is
// recorded here (populates the "recording available" affordance).
type Recording struct {
	ID               uuid.UUID `json:"id"`
	StreamID         uuid.UUID `json:"stream_id"`
	AssetID          string    `json:"asset_id"`
	PlatformStreamID string    `json:"platform_stream_id,omitempty"`
	PlaybackID       string    `json:"playback_id,omitempty"`
	Duration         float64   `json:"duration,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
