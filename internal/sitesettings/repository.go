package sitesettings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecast/backend/internal/models"
)

// Repository handles the singleton site settings row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a site settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the settings row, or (nil, nil) when none has been saved yet.
func (r *Repository) Get(ctx context.Context) (*models.SiteSettings, error) {
	const q = `SELECT site_title, site_description, offline_message, default_stream_message, social_links, updated_at
		FROM site_settings WHERE id = 1`
	var s models.SiteSettings
	var social []byte
	err := r.pool.QueryRow(ctx, q).Scan(&s.SiteTitle, &s.SiteDescription, &s.OfflineMessage,
		&s.DefaultStreamMessage, &social, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(social) > 0 {
		if err := json.Unmarshal(social, &s.Social); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Upsert writes the settings row, creating it on first save.
func (r *Repository) Upsert(ctx context.Context, s *models.SiteSettings) error {
	social, err := json.Marshal(s.Social)
	if err != nil {
		return err
	}
	const q = `INSERT INTO site_settings (id, site_title, site_description, offline_message, default_stream_message, social_links, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			site_title = EXCLUDED.site_title,
			site_description = EXCLUDED.site_description,
			offline_message = EXCLUDED.offline_message,
			default_stream_message = EXCLUDED.default_stream_message,
			social_links = EXCLUDED.social_links,
			updated_at = NOW()
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, s.SiteTitle, s.SiteDescription, s.OfflineMessage, s.DefaultStreamMessage, social).
		Scan(&s.UpdatedAt)
}
