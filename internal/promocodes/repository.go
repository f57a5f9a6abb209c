package promocodes

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revelry-events/backend/internal/models"
)

// Repository handles promo-code persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a promo-codes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a promo code. Codes are unique per event; the caller
// maps the unique violation to a conflict response.
func (r *Repository) Create(ctx context.Context, p *models.PromoCode) error {
	const q = `INSERT INTO promo_codes (id, event_id, code, discount_type, discount_value, max_uses, valid_from, valid_until)
		VALUES (gen_random_uuid(), $1, UPPER($2), $3, $4, $5, $6, $7)
		RETURNING id, code, used_count, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.EventID, p.Code, p.DiscountType, p.DiscountValue, p.MaxUses, p.ValidFrom, p.ValidUntil).
		Scan(&p.ID, &p.Code, &p.UsedCount, &p.CreatedAt, &p.UpdatedAt)
}

// ListByEvent returns the event's promo codes, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.PromoCode, error) {
	const q = `SELECT id, event_id, code, discount_type, discount_value, max_uses, used_count, valid_from, valid_until, created_at, updated_at
		FROM promo_codes WHERE event_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.PromoCode
	for rows.Next() {
		var p models.PromoCode
		if err := rows.Scan(&p.ID, &p.EventID, &p.Code, &p.DiscountType, &p.DiscountValue, &p.MaxUses, &p.UsedCount,
			&p.ValidFrom, &p.ValidUntil, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetByCode returns the event's promo code matching the code
// (case-insensitive). Returns nil when absent.
func (r *Repository) GetByCode(ctx context.Context, eventID uuid.UUID, code string) (*models.PromoCode, error) {
	const q = `SELECT id, event_id, code, discount_type, discount_value, max_uses, used_count, valid_from, valid_until, created_at, updated_at
		FROM promo_codes WHERE event_id = $1 AND code = UPPER($2)`
	var p models.PromoCode
	err := r.pool.QueryRow(ctx, q, eventID, code).Scan(&p.ID, &p.EventID, &p.Code, &p.DiscountType, &p.DiscountValue,
		&p.MaxUses, &p.UsedCount, &p.ValidFrom, &p.ValidUntil, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Redeem bumps used_count if the cap allows it. The guard lives in the
// UPDATE itself so concurrent redemptions cannot overshoot max_uses;
// max_uses = 0 means unlimited. Returns false when the code is spent.
func (r *Repository) Redeem(ctx context.Context, codeID uuid.UUID) (bool, error) {
	const q = `UPDATE promo_codes SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (max_uses = 0 OR used_count < max_uses)`
	tag, err := r.pool.Exec(ctx, q, codeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a promo code scoped to the event. Returns false when absent.
func (r *Repository) Delete(ctx context.Context, eventID, codeID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promo_codes WHERE id = $1 AND event_id = $2`, codeID, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
