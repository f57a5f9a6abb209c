package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revelry-events/backend/internal/models"
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, ev *models.Event) error {
	const q = `INSERT INTO events (id, title, description, venue, starts_at, ends_at, created_by, organization_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, ev.Title, ev.Description, ev.Venue, ev.StartsAt, ev.EndsAt, ev.CreatedBy, ev.OrganizationID).
		Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT id, title, description, COALESCE(venue,''), starts_at, ends_at, created_by, organization_id, created_at, updated_at
		FROM events WHERE id = $1`
	var ev models.Event
	err := r.pool.QueryRow(ctx, q, id).Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Venue, &ev.StartsAt, &ev.EndsAt, &ev.CreatedBy, &ev.OrganizationID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// List returns events, optionally filtered by creator or organization.
func (r *Repository) List(ctx context.Context, createdBy, organizationID *uuid.UUID) ([]models.Event, error) {
	base := `SELECT id, title, description, COALESCE(venue,''), starts_at, ends_at, created_by, organization_id, created_at, updated_at FROM events`
	var args []interface{}
	var cond string
	if createdBy != nil {
		cond = " WHERE created_by = $1"
		args = append(args, *createdBy)
	}
	if organizationID != nil {
		if cond == "" {
			cond = " WHERE organization_id = $1"
		} else {
			cond += " AND organization_id = $2"
		}
		args = append(args, *organizationID)
	}
	rows, err := r.pool.Query(ctx, base+cond+" ORDER BY starts_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Venue, &ev.StartsAt, &ev.EndsAt, &ev.CreatedBy, &ev.OrganizationID, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

// Update updates event fields (title, description, venue, starts_at, ends_at).
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, description, venue string, startsAt, endsAt *time.Time) error {
	const q = `UPDATE events SET title = $1, description = $2, venue = $3,
		starts_at = COALESCE($4, starts_at), ends_at = COALESCE($5, ends_at), updated_at = NOW()
		WHERE id = $6`
	_, err := r.pool.Exec(ctx, q, title, description, venue, startsAt, endsAt, id)
	return err
}

// Delete removes an event by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM events WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}
