package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
)

var (
	// ErrNotConfigured indicates platform API credentials are missing.
	ErrNotConfigured = errors.New("platform: credentials not configured")
	// ErrNotFound indicates the platform has no stream with the given id.
	ErrNotFound = errors.New("platform: stream not found")
	// ErrUnavailable indicates a network failure or platform-side error.
	ErrUnavailable = errors.New("platform: unavailable")
)

// PlaybackID is one playback id entry on a platform live stream.
type PlaybackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy,omitempty"`
}

// LiveStream is the platform's representation of a live stream.
type LiveStream struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	StreamKey      string       `json:"stream_key,omitempty"`
	PlaybackIDs    []PlaybackID `json:"playback_ids,omitempty"`
	RecentAssetIDs []string     `json:"recent_asset_ids,omitempty"`
	CreatedAt      string       `json:"created_at,omitempty"`
}

// FirstPlaybackID returns the first playback id, or empty.
func (s *LiveStream) FirstPlaybackID() string {
	if len(s.PlaybackIDs) == 0 {
		return ""
	}
	return s.PlaybackIDs[0].ID
}

// IsLive reports the flap-avoidance conjunction: an active ingest that has
// already produced at least one asset.
func (s *LiveStream) IsLive() bool {
	return s.Status == models.PlatformStateActive && len(s.RecentAssetIDs) > 0
}

// Client calls the video platform's REST API with Basic auth.
type Client struct {
	baseURL     string
	tokenID     string
	tokenSecret string
	http        *http.Client
	logger      *zap.Logger
}

// Config holds platform API settings.
type Config struct {
	BaseURL     string
	TokenID     string
	TokenSecret string
	Timeout     time.Duration
}

// NewClient creates a platform API client. Credentials may be empty; calls
// then fail with ErrNotConfigured so callers can degrade gracefully.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		tokenID:     cfg.TokenID,
		tokenSecret: cfg.TokenSecret,
		http:        &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Configured reports whether API credentials are present.
func (c *Client) Configured() bool {
	return c.tokenID != "" && c.tokenSecret != ""
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.tokenID, c.tokenSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrUnavailable, err)
	}
	return nil
}

// GetLiveStream fetches a single live stream by platform id.
func (c *Client) GetLiveStream(ctx context.Context, id string) (*LiveStream, error) {
	var s LiveStream
	if err := c.do(ctx, http.MethodGet, "/video/v1/live-streams/"+id, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LiveStreamStatus returns the platform's live/idle/disconnected view of a
// stream as a point-in-time PlatformStatus read.
func (c *Client) LiveStreamStatus(ctx context.Context, platformStreamID string) (*models.PlatformStatus, error) {
	s, err := c.GetLiveStream(ctx, platformStreamID)
	if err != nil {
		return nil, err
	}
	return &models.PlatformStatus{
		PlatformStreamID: s.ID,
		RawState:         s.Status,
		HasRecentAsset:   len(s.RecentAssetIDs) > 0,
		RecentAssetIDs:   s.RecentAssetIDs,
	}, nil
}

// ListLiveStreams fetches all live streams.
func (c *Client) ListLiveStreams(ctx context.Context) ([]LiveStream, error) {
	var list []LiveStream
	if err := c.do(ctx, http.MethodGet, "/video/v1/live-streams", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

type createRequest struct {
	PlaybackPolicy   []string `json:"playback_policy"`
	NewAssetSettings struct {
		PlaybackPolicy []string `json:"playback_policy"`
	} `json:"new_asset_settings"`
}

// CreateLiveStream provisions a new live stream with the given playback policy
// ("public" or "signed"). New assets inherit the same policy.
func (c *Client) CreateLiveStream(ctx context.Context, playbackPolicy string) (*LiveStream, error) {
	if playbackPolicy == "" {
		playbackPolicy = "public"
	}
	var req createRequest
	req.PlaybackPolicy = []string{playbackPolicy}
	req.NewAssetSettings.PlaybackPolicy = []string{playbackPolicy}

	var s LiveStream
	if err := c.do(ctx, http.MethodPost, "/video/v1/live-streams", req, &s); err != nil {
		return nil, err
	}
	c.logger.Info("platform stream created", zap.String("platform_stream_id", s.ID))
	return &s, nil
}

// DeleteLiveStream removes a live stream from the platform.
func (c *Client) DeleteLiveStream(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/video/v1/live-streams/"+id, nil, nil); err != nil {
		return err
	}
	c.logger.Info("platform stream deleted", zap.String("platform_stream_id", id))
	return nil
}
