// Package reconcile merges the declared stream status held in the content
// store with the video platform's real-time signal into one effective status.
package reconcile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
	"github.com/pulsecast/backend/internal/platform"
)

// StreamStore is the corrective-write surface of the declared-state store.
type StreamStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.StreamStatus) error
}

// StatusSource reads the platform's view of a live stream.
type StatusSource interface {
	LiveStreamStatus(ctx context.Context, platformStreamID string) (*models.PlatformStatus, error)
}

// AssetSource lists assets recorded locally for a stream, newest first.
type AssetSource interface {
	RecentAssetIDs(ctx context.Context, streamID uuid.UUID, limit int) ([]string, error)
}

// recentAssetLimit bounds the local asset lookup; one asset is enough to
// satisfy the liveness conjunction.
const recentAssetLimit = 5

// Notifier is told about applied status transitions so viewers can be pushed
// an update.
type Notifier interface {
	StreamStatusChanged(stream *models.Stream, status models.StreamStatus, platformStatus *models.PlatformStatus)
}

// Reconciler computes effective stream status and corrects the store when the
// platform disagrees with the declared value.
type Reconciler struct {
	store    StreamStore
	source   StatusSource
	assets   AssetSource
	notifier Notifier
	logger   *zap.Logger
}

// New creates a reconciler. assets and notifier may each be nil.
func New(store StreamStore, source StatusSource, assets AssetSource, notifier Notifier, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, source: source, assets: assets, notifier: notifier, logger: logger}
}

// Reconcile returns the effective status for a stream record.
//
// Scheduled and archived are operator-controlled and returned unchanged; the
// platform is never consulted for them. For live/offline records the platform
// signal wins when it can be read: live requires both an active ingest and a
// recent asset. A record with no platform binding cannot be live and resolves
// offline. When the platform is unreachable the declared status stands - the
// viewer-facing read never fails on a transient upstream error. A divergence
// issues exactly one corrective write; its failure is
// logged and does not affect the returned value, since the next webhook or
// poll will correct it.
func (r *Reconciler) Reconcile(ctx context.Context, stream *models.Stream) (models.StreamStatus, *models.PlatformStatus) {
	if stream.Status.OperatorControlled() {
		return stream.Status, nil
	}

	if stream.PlatformStreamID == "" {
		// Without a platform binding there is no ingest, so a declared-live
		// record degrades to offline.
		if stream.Status == models.StatusLive {
			return models.StatusOffline, nil
		}
		return stream.Status, nil
	}

	platformStatus, err := r.source.LiveStreamStatus(ctx, stream.PlatformStreamID)
	if err != nil {
		switch {
		case errors.Is(err, platform.ErrNotFound):
			// The platform has no such stream, so it cannot be live.
			platformStatus = &models.PlatformStatus{
				PlatformStreamID: stream.PlatformStreamID,
				RawState:         models.PlatformStateIdle,
			}
		case errors.Is(err, platform.ErrNotConfigured):
			r.logger.Debug("platform credentials missing, using declared status",
				zap.String("stream_id", stream.ID.String()))
			return stream.Status, nil
		default:
			r.logger.Warn("platform status read failed, using declared status",
				zap.Error(err), zap.String("stream_id", stream.ID.String()))
			return stream.Status, nil
		}
	}

	// The platform's asset list can lag the asset.created webhook. When the
	// ingest is active but the response carries no recent asset, the assets
	// recorded locally from webhooks fill the gap.
	if r.assets != nil && !platformStatus.HasRecentAsset && platformStatus.RawState == models.PlatformStateActive {
		ids, err := r.assets.RecentAssetIDs(ctx, stream.ID, recentAssetLimit)
		if err != nil {
			r.logger.Warn("local asset lookup failed",
				zap.Error(err), zap.String("stream_id", stream.ID.String()))
		} else if len(ids) > 0 {
			platformStatus.HasRecentAsset = true
			platformStatus.RecentAssetIDs = ids
		}
	}

	effective := models.StatusOffline
	if platformStatus.IsLive() {
		effective = models.StatusLive
	}

	if effective != stream.Status {
		if err := r.store.UpdateStatus(ctx, stream.ID, effective); err != nil {
			// Fire-and-forget relative to the read path.
			r.logger.Error("corrective status write failed",
				zap.Error(err),
				zap.String("stream_id", stream.ID.String()),
				zap.String("from", string(stream.Status)),
				zap.String("to", string(effective)))
		} else {
			r.logger.Info("stream status corrected",
				zap.String("stream_id", stream.ID.String()),
				zap.String("from", string(stream.Status)),
				zap.String("to", string(effective)))
			if r.notifier != nil {
				r.notifier.StreamStatusChanged(stream, effective, platformStatus)
			}
		}
	}

	return effective, platformStatus
}
