// Package statuswatch polls the stream status endpoint and surfaces
// transitions, mirroring what the site's player does in the browser.
package statuswatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the poll period used when none is configured. The
// endpoint is cheap (short-TTL cached server side); 10-30s is the sensible
// range.
const DefaultInterval = 15 * time.Second

// Status is the parsed payload of GET /stream/status.
type Status struct {
	Status        string `json:"status"`
	PlaybackID    string `json:"playbackId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Slug          string `json:"slug"`
	ScheduledDate string `json:"scheduledDate"`
	IsLive        bool   `json:"isLive"`
}

// FetchFunc retrieves the current status. Implementations must honor ctx
// cancellation.
type FetchFunc func(ctx context.Context) (*Status, error)

// Config configures a Watcher.
type Config struct {
	// URL of the status endpoint; ignored when Fetch is set.
	URL string
	// Fetch overrides the HTTP fetch (tests, embedding).
	Fetch FetchFunc
	// Interval between polls; DefaultInterval when zero.
	Interval time.Duration
	// Timeout per request; defaults to Interval.
	Timeout time.Duration
	// OnChange fires on every status transition. prev is nil on the first
	// successful poll.
	OnChange func(prev, current *Status)
	// OnLive fires once per non-live -> live edge. Never refires while the
	// stream stays live.
	OnLive func(current *Status)
	Logger *zap.Logger
}

// Watcher polls for the effective stream status. One poll is in flight at a
// time: a tick that lands while a request is pending is skipped, not queued,
// so a slow network never piles up requests.
type Watcher struct {
	cfg      Config
	fetch    FetchFunc
	mu       sync.RWMutex
	current  *Status
	failures atomic.Int64
	inflight atomic.Bool
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// New creates a watcher from cfg.
func New(cfg Config) (*Watcher, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{cfg: cfg, logger: logger}
	if cfg.Fetch != nil {
		w.fetch = cfg.Fetch
	} else {
		if cfg.URL == "" {
			return nil, errors.New("statuswatch: URL or Fetch required")
		}
		client := &http.Client{Timeout: cfg.Timeout}
		w.fetch = func(ctx context.Context) (*Status, error) {
			return fetchHTTP(ctx, client, cfg.URL)
		}
	}
	return w, nil
}

func fetchHTTP(ctx context.Context, client *http.Client, url string) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("statuswatch: status %d", resp.StatusCode)
	}
	var s Status
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Run polls immediately, then on every interval tick, until ctx is canceled.
// Cancellation aborts any in-flight request and stops the ticker; Run returns
// only after the last poll goroutine has finished.
func (w *Watcher) Run(ctx context.Context) {
	w.poll(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll starts one fetch unless another is still pending.
func (w *Watcher) poll(ctx context.Context) {
	if !w.inflight.CompareAndSwap(false, true) {
		w.logger.Debug("poll skipped, request already in flight")
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.inflight.Store(false)

		status, err := w.fetch(ctx)
		if err != nil {
			// Keep the last-known status; the next tick fires on schedule.
			n := w.failures.Add(1)
			if ctx.Err() == nil {
				w.logger.Warn("status poll failed", zap.Error(err), zap.Int64("consecutive_failures", n))
			}
			return
		}
		w.failures.Store(0)
		w.apply(status)
	}()
}

// apply swaps in the new status and fires edge-triggered callbacks.
func (w *Watcher) apply(status *Status) {
	w.mu.Lock()
	prev := w.current
	w.current = status
	w.mu.Unlock()

	changed := prev == nil || prev.Status != status.Status
	if changed && w.cfg.OnChange != nil {
		w.cfg.OnChange(prev, status)
	}
	wentLive := prev != nil && !prev.IsLive && status.IsLive
	if wentLive && w.cfg.OnLive != nil {
		w.cfg.OnLive(status)
	}
}

// Current returns the last successfully fetched status, or nil.
func (w *Watcher) Current() *Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Failures returns the consecutive poll-failure count, for diagnostics.
func (w *Watcher) Failures() int64 {
	return w.failures.Load()
}
