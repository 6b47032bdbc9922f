package announcements

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecast/backend/internal/models"
)

const announcementColumns = `id, title, message, type, priority, is_active, expires_at, created_at`

// Repository handles announcement persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an announcements repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns active, unexpired announcements ordered by priority then
// recency.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	const q = `SELECT ` + announcementColumns + ` FROM announcements
		WHERE is_active AND (expires_at IS NULL OR expires_at > $1)
		ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at DESC`
	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanList(rows)
}

// List returns all announcements, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Announcement, error) {
	const q = `SELECT ` + announcementColumns + ` FROM announcements ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanList(rows)
}

// Create inserts a new announcement.
func (r *Repository) Create(ctx context.Context, a *models.Announcement) error {
	const q = `INSERT INTO announcements (id, title, message, type, priority, is_active, expires_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, a.Title, a.Message, string(a.Type), a.Priority, a.Active, a.ExpiresAt).
		Scan(&a.ID, &a.CreatedAt)
}

// SetActive toggles an announcement. Returns false when no row matched.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE announcements SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes an announcement. Returns false when no row matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanList(rows pgx.Rows) ([]models.Announcement, error) {
	var list []models.Announcement
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &a.Type, &a.Priority, &a.Active, &a.ExpiresAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return list, nil
}
