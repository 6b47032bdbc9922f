package models

// Raw platform stream states (platform vocabulary).
const (
	PlatformStateIdle         = "idle"
	PlatformStateActive       = "active"
	PlatformStateDisconnected = "disconnected"
)

// PlatformStatus is a point-in-time read of the video platform's view of a
// live stream. It is never persisted.
type PlatformStatus struct {
	PlatformStreamID string   `json:"platform_stream_id"`
	RawState         string   `json:"raw_state"`
	HasRecentAsset   bool     `json:"has_recent_asset"`
	RecentAssetIDs   []string `json:"recent_asset_ids,omitempty"`
}

// IsLive reports whether the stream is actually live. The platform can report
// "active" transiently before media arrives, so a recent asset is required as
// well; this keeps the public status from flapping to live before content
// exists.
func (p *PlatformStatus) IsLive() bool {
	return p.RawState == PlatformStateActive && p.HasRecentAsset
}
