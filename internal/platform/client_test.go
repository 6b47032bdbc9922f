package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:     srv.URL,
		TokenID:     "token-id",
		TokenSecret: "token-secret",
		Timeout:     2 * time.Second,
	}, nil)
}

func writeData(w http.ResponseWriter, data interface{}) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func TestGetLiveStreamUnwrapsEnvelope(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/video/v1/live-streams/ls-1", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "token-id", user)
		assert.Equal(t, "token-secret", pass)
		writeData(w, LiveStream{
			ID:             "ls-1",
			Status:         "active",
			StreamKey:      "key-1",
			PlaybackIDs:    []PlaybackID{{ID: "pb-1", Policy: "public"}},
			RecentAssetIDs: []string{"asset-1"},
		})
	}))

	s, err := c.GetLiveStream(context.Background(), "ls-1")
	require.NoError(t, err)
	assert.Equal(t, "ls-1", s.ID)
	assert.Equal(t, "pb-1", s.FirstPlaybackID())
	assert.True(t, s.IsLive())
}

func TestLiveStreamStatusConjunction(t *testing.T) {
	cases := []struct {
		name   string
		stream LiveStream
		isLive bool
	}{
		{"active with asset", LiveStream{ID: "ls", Status: "active", RecentAssetIDs: []string{"a"}}, true},
		{"active without asset", LiveStream{ID: "ls", Status: "active"}, false},
		{"idle with asset", LiveStream{ID: "ls", Status: "idle", RecentAssetIDs: []string{"a"}}, false},
		{"disconnected", LiveStream{ID: "ls", Status: "disconnected"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeData(w, tc.stream)
			}))
			status, err := c.LiveStreamStatus(context.Background(), "ls")
			require.NoError(t, err)
			assert.Equal(t, tc.isLive, status.IsLive())
			assert.Equal(t, tc.stream.Status, status.RawState)
		})
	}
}

func TestGetLiveStreamNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetLiveStream(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServerErrorIsUnavailable(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.GetLiveStream(context.Background(), "ls")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMissingCredentials(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://localhost:0"}, nil)
	assert.False(t, c.Configured())

	_, err := c.GetLiveStream(context.Background(), "ls")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.LiveStreamStatus(context.Background(), "ls")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateLiveStreamSendsPolicy(t *testing.T) {
	var got createRequest
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/video/v1/live-streams", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeData(w, LiveStream{ID: "ls-new", Status: "idle", StreamKey: "key-new",
			PlaybackIDs: []PlaybackID{{ID: "pb-new", Policy: "signed"}}})
	}))

	s, err := c.CreateLiveStream(context.Background(), "signed")
	require.NoError(t, err)
	assert.Equal(t, "ls-new", s.ID)
	assert.Equal(t, []string{"signed"}, got.PlaybackPolicy)
	assert.Equal(t, []string{"signed"}, got.NewAssetSettings.PlaybackPolicy)
}

func TestCreateLiveStreamDefaultsPublic(t *testing.T) {
	var got createRequest
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeData(w, LiveStream{ID: "ls-new"})
	}))

	_, err := c.CreateLiveStream(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, got.PlaybackPolicy)
}

func TestDeleteLiveStream(t *testing.T) {
	var method, path string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DeleteLiveStream(context.Background(), "ls-1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/video/v1/live-streams/ls-1", path)
}
