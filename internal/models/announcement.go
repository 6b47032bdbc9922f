package models

import (
	"time"

	"github.com/google/uuid"
)

// AnnouncementType categorizes site announcements.
type AnnouncementType string

const (
	AnnouncementGeneral   AnnouncementType = "general"
	AnnouncementSchedule  AnnouncementType = "schedule"
	AnnouncementTechnical AnnouncementType = "technical"
	AnnouncementPromotion AnnouncementType = "promotion"
)

// Announcement is a banner message shown on the site.
type Announcement struct {
	ID        uuid.UUID        `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      AnnouncementType `json:"type"`
	Priority  string           `json:"priority"` // low | medium | high
	Active    bool             `json:"active"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Expired reports whether the announcement has passed its expiration date.
// Announcements without one never expire.
func (a *Announcement) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}
