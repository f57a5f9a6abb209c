package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the lifecycle status of a purchased ticket.
type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketPaid     TicketStatus = "paid"
	TicketScanned  TicketStatus = "scanned"
	TicketRefunded TicketStatus = "refunded"
)

// Ticket is one purchased admission. Tickets bought together share an
// order ID; single purchases may have none.
type Ticket struct {
	ID         uuid.UUID    `json:"id"`
	EventID    uuid.UUID    `json:"event_id"`
	UserID     uuid.UUID    `json:"user_id"`
	OrderID    *uuid.UUID   `json:"order_id,omitempty"`
	TypeLabel  string       `json:"type_label"`
	PriceCents int64        `json:"price_cents"`
	Status     TicketStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
