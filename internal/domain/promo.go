package domain

import (
	"time"

	"github.com/google/uuid"
)

// PromoCode is a percentage discount with a validity window. A nil
// RestaurantID means the code applies marketplace-wide.
type PromoCode struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Percentage   int        `json:"percentage"`
	ValidFrom    time.Time  `json:"valid_from"`
	ValidUntil   time.Time  `json:"valid_until"`
	RestaurantID *uuid.UUID `json:"restaurant_id,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PromoRejectionReason explains why a code did not apply.
type PromoRejectionReason string

const (
	PromoRejectionNotFound    PromoRejectionReason = "not_found"
	PromoRejectionNotYetValid PromoRejectionReason = "not_yet_valid"
	PromoRejectionExpired     PromoRejectionReason = "expired"
	PromoRejectionWrongScope  PromoRejectionReason = "wrong_restaurant"
	PromoRejectionInactive    PromoRejectionReason = "inactive"
)

// EvaluateAt checks whether the code applies to an order for restaurantID
// at the given instant. An empty reason means the code applies.
func (p *PromoCode) EvaluateAt(now time.Time, restaurantID uuid.UUID) PromoRejectionReason {
	if !p.Active {
		return PromoRejectionInactive
	}
	if now.Before(p.ValidFrom) {
		return PromoRejectionNotYetValid
	}
	if now.After(p.ValidUntil) {
		return PromoRejectionExpired
	}
	if p.RestaurantID != nil && *p.RestaurantID != restaurantID {
		return PromoRejectionWrongScope
	}
	return ""
}

// Discount computes the discount for a subtotal, rounded half up.
func (p *PromoCode) Discount(subtotal Money) Money {
	return subtotal.PercentOf(p.Percentage)
}
