package recordings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecast/backend/internal/models"
)

const recordingColumns = `id, stream_id, asset_id, platform_stream_id, playback_id, duration, created_at`

// Repository handles recording persistence. Rows are references to platform
// assets; the media itself never passes through this service.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a recordings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a recording reference. Webhook deliveries can repeat, so an
// asset already on file is left untouched and the stored row is returned.
func (r *Repository) Create(ctx context.Context, rec *models.Recording) error {
	const q = `INSERT INTO recordings (id, stream_id, asset_id, platform_stream_id, playback_id, duration)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		ON CONFLICT (asset_id) DO NOTHING
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, rec.StreamID, rec.AssetID, rec.PlatformStreamID, rec.PlaybackID, rec.Duration).
		Scan(&rec.ID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := r.GetByAssetID(ctx, rec.AssetID)
		if getErr != nil {
			return getErr
		}
		if existing != nil {
			*rec = *existing
		}
		return nil
	}
	return err
}

// GetByAssetID returns the recording for a platform asset, or (nil, nil).
func (r *Repository) GetByAssetID(ctx context.Context, assetID string) (*models.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM recordings WHERE asset_id = $1`
	var rec models.Recording
	err := r.pool.QueryRow(ctx, q, assetID).Scan(&rec.ID, &rec.StreamID, &rec.AssetID, &rec.PlatformStreamID, &rec.PlaybackID, &rec.Duration, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListByStream returns all recordings for a stream, newest first.
func (r *Repository) ListByStream(ctx context.Context, streamID uuid.UUID) ([]models.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM recordings WHERE stream_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, streamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Recording
	for rows.Next() {
		var rec models.Recording
		if err := rows.Scan(&rec.ID, &rec.StreamID, &rec.AssetID, &rec.PlatformStreamID, &rec.PlaybackID, &rec.Duration, &rec.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// RecentAssetIDs returns asset IDs recorded for a stream within the window,
// newest first. Feeds the recent-asset half of the liveness signal when the
// platform response omits it.
func (r *Repository) RecentAssetIDs(ctx context.Context, streamID uuid.UUID, limit int) ([]string, error) {
	const q = `SELECT asset_id FROM recordings WHERE stream_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, streamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
