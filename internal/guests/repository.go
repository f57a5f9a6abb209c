package guests

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revelry-events/backend/internal/models"
)

// maxRows caps each source of the materialized guest list. Event guest
// lists are bounded in practice; the cap keeps a runaway event from
// producing an unbounded response.
const maxRows = 5000

// ToggleAnchor identifies the purchase group behind a ticket-derived row.
type ToggleAnchor struct {
	UserID  uuid.UUID
	OrderID *uuid.UUID
}

// NewManualGuest is the snapshot inserted for one manually-added guest.
type NewManualGuest struct {
	FullName string
	Email    string
	Phone    string
}

// Repository handles guest-list persistence: tickets (read/bulk-update)
// and manual event guests.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a guests repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListTicketRows returns paid/scanned tickets for the event joined with
// buyer display fields. The inner join drops tickets whose buyer no
// longer resolves to a user row. Ordered oldest first so the first
// ticket of each purchase group is the stable row anchor.
func (r *Repository) ListTicketRows(ctx context.Context, eventID uuid.UUID) ([]TicketRow, error) {
	const q = `SELECT t.id, t.order_id, t.user_id,
			COALESCE(u.first_name,''), COALESCE(u.last_name,''), COALESCE(u.username,''), u.email, COALESCE(u.phone,''),
			COALESCE(t.type_label,''), t.price_cents, t.status, t.created_at, t.updated_at
		FROM tickets t
		INNER JOIN users u ON u.id = t.user_id
		WHERE t.event_id = $1 AND t.status IN ('paid', 'scanned')
		ORDER BY t.created_at ASC, t.id ASC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, eventID, maxRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []TicketRow
	for rows.Next() {
		var t TicketRow
		if err := rows.Scan(&t.TicketID, &t.OrderID, &t.BuyerID, &t.FirstName, &t.LastName, &t.Username, &t.Email, &t.Phone,
			&t.TypeLabel, &t.PriceCents, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// ListManualGuests returns the event's manually-added guests.
func (r *Repository) ListManualGuests(ctx context.Context, eventID uuid.UUID) ([]models.EventGuest, error) {
	const q = `SELECT id, event_id, COALESCE(full_name,''), COALESCE(name,''), email, COALESCE(phone,''), status, created_at, updated_at
		FROM event_guests WHERE event_id = $1
		ORDER BY created_at ASC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, eventID, maxRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EventGuest
	for rows.Next() {
		var g models.EventGuest
		if err := rows.Scan(&g.ID, &g.EventID, &g.FullName, &g.LegacyName, &g.Email, &g.Phone, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

// GetUserSnapshots returns display snapshots for the given user IDs.
// IDs that resolve to no user are simply absent from the result.
func (r *Repository) GetUserSnapshots(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	const q = `SELECT id, email, COALESCE(first_name,''), COALESCE(last_name,''), COALESCE(username,''), COALESCE(phone,'')
		FROM users WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Username, &u.Phone); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ListGuestEmails returns the emails of the event's existing manual
// guests, exactly as stored (matching is case-sensitive).
func (r *Repository) ListGuestEmails(ctx context.Context, eventID uuid.UUID) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM event_guests WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	emails := make(map[string]struct{})
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails[email] = struct{}{}
	}
	return emails, rows.Err()
}

// InsertManualGuests inserts manual guests with status pending_arrival.
// Duplicate emails racing in from a concurrent call are dropped by the
// (event_id, email) unique index; the read path self-heals.
func (r *Repository) InsertManualGuests(ctx context.Context, eventID uuid.UUID, guests []NewManualGuest) error {
	const q = `INSERT INTO event_guests (id, event_id, full_name, email, phone, status)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''), 'pending_arrival')
		ON CONFLICT (event_id, email) DO NOTHING`
	for _, g := range guests {
		if _, err := r.pool.Exec(ctx, q, eventID, g.FullName, g.Email, g.Phone); err != nil {
			return err
		}
	}
	return nil
}

// UpdateManualGuestStatus sets the status of a manual guest scoped to
// the event. Returns false when no such guest exists.
func (r *Repository) UpdateManualGuestStatus(ctx context.Context, eventID, guestID uuid.UUID, status models.GuestStatus) (bool, error) {
	const q = `UPDATE event_guests SET status = $1, updated_at = NOW() WHERE id = $2 AND event_id = $3`
	tag, err := r.pool.Exec(ctx, q, string(status), guestID, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetToggleAnchor resolves a ticket ID to its owner and order group,
// scoped to the event and to paid/scanned tickets. Returns nil when the
// ticket does not match.
func (r *Repository) GetToggleAnchor(ctx context.Context, eventID, ticketID uuid.UUID) (*ToggleAnchor, error) {
	const q = `SELECT user_id, order_id FROM tickets
		WHERE id = $1 AND event_id = $2 AND status IN ('paid', 'scanned')`
	var a ToggleAnchor
	err := r.pool.QueryRow(ctx, q, ticketID, eventID).Scan(&a.UserID, &a.OrderID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// BulkSetTicketStatus flips every paid/scanned ticket of the owner for
// this event (scoped to the order group when one exists) to the target
// status in a single statement. One UPDATE over the filtered match set
// keeps concurrent toggles on the same order from interleaving.
func (r *Repository) BulkSetTicketStatus(ctx context.Context, eventID, userID uuid.UUID, orderID *uuid.UUID, to models.TicketStatus) (int64, error) {
	if orderID != nil {
		const q = `UPDATE tickets SET status = $1, updated_at = NOW()
			WHERE event_id = $2 AND user_id = $3 AND order_id = $4 AND status IN ('paid', 'scanned')`
		tag, err := r.pool.Exec(ctx, q, string(to), eventID, userID, *orderID)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	}
	const q = `UPDATE tickets SET status = $1, updated_at = NOW()
		WHERE event_id = $2 AND user_id = $3 AND status IN ('paid', 'scanned')`
	tag, err := r.pool.Exec(ctx, q, string(to), eventID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteManualGuest removes a manual guest scoped to the event. Returns
// false when no such guest exists; ticket-derived rows are never
// deletable through this path.
func (r *Repository) DeleteManualGuest(ctx context.Context, eventID, guestID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM event_guests WHERE id = $1 AND event_id = $2`, guestID, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
