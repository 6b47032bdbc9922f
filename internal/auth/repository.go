package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecast/backend/internal/models"
)

const operatorColumns = `id, email, password_hash, name, role, created_at, updated_at`

// Repository handles operator persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOperator(row pgx.Row) (*models.Operator, error) {
	var o models.Operator
	err := row.Scan(&o.ID, &o.Email, &o.Password, &o.Name, &o.Role, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// GetByID returns an operator by ID, or (nil, nil) when none exists.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	const q = `SELECT ` + operatorColumns + ` FROM operators WHERE id = $1`
	return scanOperator(r.pool.QueryRow(ctx, q, id))
}

// GetByEmail returns an operator by email, or (nil, nil) when none exists.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	const q = `SELECT ` + operatorColumns + ` FROM operators WHERE email = $1`
	return scanOperator(r.pool.QueryRow(ctx, q, email))
}

// Count returns the number of operator accounts. Used to decide whether the
// configured admin seed should run.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM operators`).Scan(&n)
	return n, err
}

// Create inserts a new operator.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name string, role models.Role) (*models.Operator, error) {
	const q = `INSERT INTO operators (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + operatorColumns
	return scanOperator(r.pool.QueryRow(ctx, q, email, passwordHash, name, string(role)))
}

// List returns all operators without password hashes.
func (r *Repository) List(ctx context.Context) ([]models.OperatorPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, name, role, created_at FROM operators ORDER BY name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.OperatorPublic
	for rows.Next() {
		var o models.OperatorPublic
		if err := rows.Scan(&o.ID, &o.Email, &o.Name, &o.Role, &o.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}
