package models

import (
	"time"

	"github.com/google/uuid"
)

// PromoDiscountType is percent or fixed.
const (
	PromoDiscountPercent = "percent"
	PromoDiscountFixed   = "fixed"
)

// PromoCode is a discount code for an event.
type PromoCode struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue int        `json:"discount_value"`
	MaxUses       int        `json:"max_uses"`
	UsedCount     int        `json:"used_count"`
	ValidFrom     time.Time  `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
