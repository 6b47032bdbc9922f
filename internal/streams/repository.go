package streams

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecast/backend/internal/models"
)

const streamColumns = `id, slug, title, description, status,
	COALESCE(platform_stream_id,''), stream_key, COALESCE(playback_id,''),
	scheduled_at, featured, category, tags, created_at, updated_at`

// Repository is the declared-state store for stream records. All lookups
// return (nil, nil) when no record matches, keeping not-found distinct from
// transient errors.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a stream repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanStream(row pgx.Row) (*models.Stream, error) {
	var s models.Stream
	err := row.Scan(&s.ID, &s.Slug, &s.Title, &s.Description, &s.Status,
		&s.PlatformStreamID, &s.StreamKey, &s.PlaybackID,
		&s.ScheduledAt, &s.Featured, &s.Category, &s.Tags, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetByID returns a stream by record id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Stream, error) {
	q := `SELECT ` + streamColumns + ` FROM streams WHERE id = $1`
	return scanStream(r.pool.QueryRow(ctx, q, id))
}

// FindBySlug returns a stream by public slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Stream, error) {
	q := `SELECT ` + streamColumns + ` FROM streams WHERE slug = $1`
	return scanStream(r.pool.QueryRow(ctx, q, slug))
}

// FindByPlatformID returns the stream bound to a platform stream id.
func (r *Repository) FindByPlatformID(ctx context.Context, platformStreamID string) (*models.Stream, error) {
	q := `SELECT ` + streamColumns + ` FROM streams WHERE platform_stream_id = $1`
	return scanStream(r.pool.QueryRow(ctx, q, platformStreamID))
}

// FindByPlaybackID returns the stream bound to a playback id (secondary
// webhook resolution path).
func (r *Repository) FindByPlaybackID(ctx context.Context, playbackID string) (*models.Stream, error) {
	q := `SELECT ` + streamColumns + ` FROM streams WHERE playback_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanStream(r.pool.QueryRow(ctx, q, playbackID))
}

// Current returns the stream shown on the home page: a declared-live stream
// first, otherwise the most recent record.
func (r *Repository) Current(ctx context.Context) (*models.Stream, error) {
	q := `SELECT ` + streamColumns + ` FROM streams
		ORDER BY (status = 'live') DESC, COALESCE(scheduled_at, created_at) DESC
		LIMIT 1`
	return scanStream(r.pool.QueryRow(ctx, q))
}

// List returns all streams for the archive, most recent first.
func (r *Repository) List(ctx context.Context) ([]models.Stream, error) {
	q := `SELECT ` + streamColumns + ` FROM streams
		ORDER BY COALESCE(scheduled_at, created_at) DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Stream
	for rows.Next() {
		var s models.Stream
		if err := rows.Scan(&s.ID, &s.Slug, &s.Title, &s.Description, &s.Status,
			&s.PlatformStreamID, &s.StreamKey, &s.PlaybackID,
			&s.ScheduledAt, &s.Featured, &s.Category, &s.Tags, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListReconcilable returns streams that the poll path should check: bound to a
// platform stream and in a non-editorial status.
func (r *Repository) ListReconcilable(ctx context.Context) ([]models.Stream, error) {
	q := `SELECT ` + streamColumns + ` FROM streams
		WHERE platform_stream_id IS NOT NULL AND status IN ('live', 'offline')
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Stream
	for rows.Next() {
		var s models.Stream
		if err := rows.Scan(&s.ID, &s.Slug, &s.Title, &s.Description, &s.Status,
			&s.PlatformStreamID, &s.StreamKey, &s.PlaybackID,
			&s.ScheduledAt, &s.Featured, &s.Category, &s.Tags, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Create inserts a new stream record. A missing slug is derived from the id.
func (r *Repository) Create(ctx context.Context, s *models.Stream) error {
	if s.Status == "" {
		s.Status = models.StatusOffline
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Slug == "" {
		s.Slug = "stream-" + s.ID.String()[:8]
	}
	const q = `INSERT INTO streams (id, slug, title, description, status, platform_stream_id, stream_key, playback_id, scheduled_at, featured, category, tags)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, NULLIF($8,''), $9, $10, $11, $12)
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.ID, s.Slug, s.Title, s.Description, s.Status,
		s.PlatformStreamID, s.StreamKey, s.PlaybackID, s.ScheduledAt, s.Featured, s.Category, s.Tags).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

// UpdateStatus sets the declared status of a single record. Atomic single-row
// write; last writer wins.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.StreamStatus) error {
	const q = `UPDATE streams SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, status, id)
	return err
}

// UpdatePlatformInfo binds platform identifiers to a record without touching
// any other field.
func (r *Repository) UpdatePlatformInfo(ctx context.Context, id uuid.UUID, platformStreamID, streamKey, playbackID string) error {
	const q = `UPDATE streams SET platform_stream_id = NULLIF($1,''), stream_key = $2, playback_id = NULLIF($3,''), updated_at = NOW()
		WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, platformStreamID, streamKey, playbackID, id)
	return err
}
