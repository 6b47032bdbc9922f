package models

import "time"

// SocialLinks holds outbound profile links for the site footer.
type SocialLinks struct {
	Twitter string `json:"twitter,omitempty"`
	YouTube string `json:"youtube,omitempty"`
	Twitch  string `json:"twitch,omitempty"`
}

// SiteSettings is the singleton site configuration row.
type SiteSettings struct {
	SiteTitle            string      `json:"site_title"`
	SiteDescription      string      `json:"site_description,omitempty"`
	OfflineMessage       string      `json:"offline_message,omitempty"`
	DefaultStreamMessage string      `json:"default_stream_message,omitempty"`
	Social               SocialLinks `json:"social_links"`
	UpdatedAt            time.Time   `json:"updated_at"`
}
