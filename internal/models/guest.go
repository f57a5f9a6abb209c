package models

import (
	"time"

	"github.com/google/uuid"
)

// GuestStatus is the check-in status shown on the guest list.
type GuestStatus string

const (
	GuestCheckedIn      GuestStatus = "checked_in"
	GuestPendingArrival GuestStatus = "pending_arrival"
)

// EventGuest is a manually-added guest. Contact fields are a snapshot
// taken at add time, not a live reference to the user record.
type EventGuest struct {
	ID       uuid.UUID `json:"id"`
	EventID  uuid.UUID `json:"event_id"`
	FullName string    `json:"full_name"`
	// LegacyName carries the pre-migration single name column, used only
	// as a display fallback when FullName is empty.
	LegacyName string      `json:"-"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone,omitempty"`
	Status     GuestStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
