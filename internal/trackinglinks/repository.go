package trackinglinks

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revelry-events/backend/internal/models"
	"github.com/revelry-events/backend/pkg/queue"
)

// MemberStats is the per-member analytics rollup for an event's links.
type MemberStats struct {
	MemberID   uuid.UUID `json:"member_id"`
	MemberName string    `json:"member_name"`
	Links      int       `json:"links"`
	Clicks     int64     `json:"clicks"`
}

// Repository handles tracking-link persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tracking-links repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a tracking link.
func (r *Repository) Create(ctx context.Context, link *models.TrackingLink) error {
	const q = `INSERT INTO tracking_links (id, event_id, organization_id, created_by, code, destination)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, clicks, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, link.EventID, link.OrganizationID, link.CreatedBy, link.Code, link.Destination).
		Scan(&link.ID, &link.Clicks, &link.CreatedAt, &link.UpdatedAt)
}

// CodeTakenInOrg reports whether a code already exists in the
// organization scope (NULL scope for links on org-less events).
func (r *Repository) CodeTakenInOrg(ctx context.Context, orgID *uuid.UUID, code string) (bool, error) {
	var exists bool
	var err error
	if orgID != nil {
		err = r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM tracking_links WHERE organization_id = $1 AND code = $2)`, *orgID, code).Scan(&exists)
	} else {
		err = r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM tracking_links WHERE organization_id IS NULL AND code = $1)`, code).Scan(&exists)
	}
	return exists, err
}

// ListByEvent returns the event's tracking links, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.TrackingLink, error) {
	const q = `SELECT id, event_id, organization_id, created_by, code, destination, clicks, created_at, updated_at
		FROM tracking_links WHERE event_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.TrackingLink
	for rows.Next() {
		var l models.TrackingLink
		if err := rows.Scan(&l.ID, &l.EventID, &l.OrganizationID, &l.CreatedBy, &l.Code, &l.Destination, &l.Clicks, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// GetByCode resolves a code to its link. Codes are unique per
// organization, not globally; the newest match wins.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.TrackingLink, error) {
	const q = `SELECT id, event_id, organization_id, created_by, code, destination, clicks, created_at, updated_at
		FROM tracking_links WHERE code = $1 ORDER BY created_at DESC LIMIT 1`
	var l models.TrackingLink
	err := r.pool.QueryRow(ctx, q, code).Scan(&l.ID, &l.EventID, &l.OrganizationID, &l.CreatedBy, &l.Code, &l.Destination, &l.Clicks, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// Delete removes a link scoped to the event. Returns false when absent.
func (r *Repository) Delete(ctx context.Context, eventID, linkID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tracking_links WHERE id = $1 AND event_id = $2`, linkID, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecordClick stores one click and bumps the link counter. Both writes
// share a transaction so the counter never drifts from the click rows.
func (r *Repository) RecordClick(ctx context.Context, p queue.ClickPayload) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO tracking_link_clicks (id, link_id, referrer, user_agent, occurred_at)
		VALUES (gen_random_uuid(), $1, NULLIF($2,''), NULLIF($3,''), $4)`,
		p.LinkID, p.Referrer, p.UserAgent, p.OccurredAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE tracking_links SET clicks = clicks + 1, updated_at = NOW() WHERE id = $1`, p.LinkID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AnalyticsByMember rolls up the event's links and clicks per creating member.
func (r *Repository) AnalyticsByMember(ctx context.Context, eventID uuid.UUID) ([]MemberStats, error) {
	const q = `SELECT l.created_by,
			COALESCE(NULLIF(TRIM(CONCAT(u.first_name, ' ', u.last_name)), ''), u.username, u.email),
			COUNT(*), COALESCE(SUM(l.clicks), 0)
		FROM tracking_links l
		INNER JOIN users u ON u.id = l.created_by
		WHERE l.event_id = $1
		GROUP BY l.created_by, u.first_name, u.last_name, u.username, u.email
		ORDER BY SUM(l.clicks) DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []MemberStats
	for rows.Next() {
		var s MemberStats
		if err := rows.Scan(&s.MemberID, &s.MemberName, &s.Links, &s.Clicks); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
