package guests

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/revelry-events/backend/internal/models"
)

// Row sources.
const (
	SourceTicket = "ticket"
	SourceManual = "manual"
)

// Display prefixes keep ticket-derived and manual order numbers visually
// distinct. The last-4 suffix is a display convenience, not a uniqueness
// guarantee; the row ID remains the true key.
const (
	ticketRefPrefix = "ORD-"
	manualRefPrefix = "GST-"
)

// TicketRow is one paid or scanned ticket joined with its buyer's
// display fields. Tickets whose buyer cannot be resolved never reach
// the materializer (the repository join drops them).
type TicketRow struct {
	TicketID   uuid.UUID
	OrderID    *uuid.UUID
	BuyerID    uuid.UUID
	FirstName  string
	LastName   string
	Username   string
	Email      string
	Phone      string
	TypeLabel  string
	PriceCents int64
	Status     models.TicketStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Row is one guest-list entry. Ticket-derived rows collapse all tickets
// of one purchase group into a single row anchored on the group's first
// ticket; manual rows map 1:1 with EventGuest records.
type Row struct {
	ID          string             `json:"id"`
	OrderNumber string             `json:"order_number"`
	FullName    string             `json:"full_name"`
	Handle      string             `json:"handle,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Email       string             `json:"email"`
	AmountCents int64              `json:"amount_cents"`
	TicketType  string             `json:"ticket_type"`
	Status      models.GuestStatus `json:"status"`
	Quantity    int                `json:"quantity"`
	DateTime    string             `json:"date_time,omitempty"`
	Source      string             `json:"source"`
	CanRemove   bool               `json:"can_remove"`
}

// Materialize builds the unified guest list: one row per distinct
// (buyer, order) ticket group plus one row per manual guest, sorted
// newest first. A group is checked in as soon as any of its tickets has
// been scanned.
func Materialize(tickets []TicketRow, manual []models.EventGuest) []Row {
	rows := make([]Row, 0, len(tickets)+len(manual))

	type group struct {
		anchor     TicketRow
		amount     int64
		quantity   int
		types      map[string]struct{}
		anyScanned bool
		latest     time.Time
	}
	groups := make(map[string]*group)
	var order []string

	for _, t := range tickets {
		key := t.BuyerID.String() + "|none"
		if t.OrderID != nil {
			key = t.BuyerID.String() + "|" + t.OrderID.String()
		}
		g, ok := groups[key]
		if !ok {
			g = &group{anchor: t, types: make(map[string]struct{})}
			groups[key] = g
			order = append(order, key)
		}
		g.amount += t.PriceCents
		g.quantity++
		if label := strings.TrimSpace(t.TypeLabel); label != "" {
			g.types[label] = struct{}{}
		}
		if t.Status == models.TicketScanned {
			g.anyScanned = true
		}
		if ts := ticketTime(t); ts.After(g.latest) {
			g.latest = ts
		}
	}

	for _, key := range order {
		g := groups[key]
		refID := g.anchor.TicketID
		if g.anchor.OrderID != nil {
			refID = *g.anchor.OrderID
		}
		status := models.GuestPendingArrival
		if g.anyScanned {
			status = models.GuestCheckedIn
		}
		handle := ""
		if g.anchor.Username != "" {
			handle = "@" + g.anchor.Username
		}
		rows = append(rows, Row{
			ID:          g.anchor.TicketID.String(),
			OrderNumber: shortRef(ticketRefPrefix, refID),
			FullName:    buyerName(g.anchor),
			Handle:      handle,
			Phone:       g.anchor.Phone,
			Email:       g.anchor.Email,
			AmountCents: g.amount,
			TicketType:  groupTicketType(g.types),
			Status:      status,
			Quantity:    g.quantity,
			DateTime:    formatTime(g.latest),
			Source:      SourceTicket,
			CanRemove:   false,
		})
	}

	for _, g := range manual {
		name := strings.TrimSpace(g.FullName)
		if name == "" {
			name = strings.TrimSpace(g.LegacyName)
		}
		if name == "" {
			name = "Guest"
		}
		status := models.GuestPendingArrival
		if g.Status == models.GuestCheckedIn {
			status = models.GuestCheckedIn
		}
		ts := g.UpdatedAt
		if ts.IsZero() {
			ts = g.CreatedAt
		}
		rows = append(rows, Row{
			ID:          g.ID.String(),
			OrderNumber: shortRef(manualRefPrefix, g.ID),
			FullName:    name,
			Phone:       g.Phone,
			Email:       g.Email,
			AmountCents: 0,
			TicketType:  "Manual",
			Status:      status,
			Quantity:    1,
			DateTime:    formatTime(ts),
			Source:      SourceManual,
			CanRemove:   true,
		})
	}

	// Newest first; rows without a timestamp sort last. Ties break on
	// order number so output is stable for identical inputs.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DateTime != rows[j].DateTime {
			return rows[i].DateTime > rows[j].DateTime
		}
		return rows[i].OrderNumber < rows[j].OrderNumber
	})
	return rows
}

func groupTicketType(types map[string]struct{}) string {
	switch len(types) {
	case 0:
		return "Ticket"
	case 1:
		for label := range types {
			return label
		}
	}
	return "Multiple"
}

func buyerName(t TicketRow) string {
	first := strings.TrimSpace(t.FirstName)
	last := strings.TrimSpace(t.LastName)
	if first != "" && last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	if t.Username != "" {
		return t.Username
	}
	if t.Email != "" {
		return t.Email
	}
	return "Guest"
}

func ticketTime(t TicketRow) time.Time {
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func shortRef(prefix string, id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return prefix + strings.ToUpper(hex[len(hex)-4:])
}
