package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackingLink is a short promotional link pointing at a destination URL.
// Codes are unique within an organization.
type TrackingLink struct {
	ID             uuid.UUID  `json:"id"`
	EventID        uuid.UUID  `json:"event_id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	CreatedBy      uuid.UUID  `json:"created_by"`
	Code           string     `json:"code"`
	Destination    string     `json:"destination"`
	Clicks         int64      `json:"clicks"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TrackingLinkClick is one recorded hit on a tracking link.
type TrackingLinkClick struct {
	ID         uuid.UUID `json:"id"`
	LinkID     uuid.UUID `json:"link_id"`
	Referrer   string    `json:"referrer,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
