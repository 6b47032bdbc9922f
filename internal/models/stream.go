package models

import (
	"time"

	"github.com/google/uuid"
)

// StreamStatus is the declared status of a stream, held in the content store.
type StreamStatus string

const (
	StatusLive      StreamStatus = "live"
	StatusOffline   StreamStatus = "offline"
	StatusScheduled StreamStatus = "scheduled"
	StatusArchived  StreamStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s StreamStatus) Valid() bool {
	switch s {
	case StatusLive, StatusOffline, StatusScheduled, StatusArchived:
		return true
	}
	return false
}

// OperatorControlled reports whether the status is an editorial decision that
// platform signals must never override.
func (s StreamStatus) OperatorControlled() bool {
	return s == StatusScheduled || s == StatusArchived
}

// Stream is a broadcast record in the content store. Status is mutated only by
// the reconciler or webhook intake; every other field belongs to the operator.
// Streams are never deleted by the liveness subsystem; archival is a status
// transition.
type Stream struct {
	ID               uuid.UUID    `json:"id"`
	Slug             string       `json:"slug"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Status           StreamStatus `json:"status"`
	PlatformStreamID string       `json:"platform_stream_id,omitempty"`
	StreamKey        string       `json:"-"`
	PlaybackID       string       `json:"playback_id,omitempty"`
	ScheduledAt      *time.Time   `json:"scheduled_at,omitempty"`
	Featured         bool         `json:"featured"`
	Category         string       `json:"category,omitempty"`
	Tags             []string     `json:"tags,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// StreamUpdate is the payload pushed to viewers when the effective status of a
// stream changes (WebSocket "stream_update" event).
type StreamUpdate struct {
	Status        StreamStatus `json:"status"`
	PlaybackID    string       `json:"playbackId,omitempty"`
	Title         string       `json:"title,omitempty"`
	Description   string       `json:"description,omitempty"`
	Slug          string       `json:"slug,omitempty"`
	ScheduledDate *time.Time   `json:"scheduledDate,omitempty"`
}
