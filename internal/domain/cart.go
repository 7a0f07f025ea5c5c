package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds a customer's pending selections. One cart per customer; all
// lines must come from the same restaurant to check out.
type Cart struct {
	ID         uuid.UUID  `json:"id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	Lines      []CartLine `json:"lines"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartLine is one item plus its customization, quantity, and an
// optional free-text note for the kitchen.
type CartLine struct {
	ID           uuid.UUID    `json:"id"`
	CartID       uuid.UUID    `json:"cart_id"`
	MenuItemID   uuid.UUID    `json:"menu_item_id"`
	RestaurantID uuid.UUID    `json:"restaurant_id"`
	Quantity     int          `json:"quantity"`
	Note         string       `json:"note,omitempty"`
	Selection    SelectionSet `json:"selection"`
	CreatedAt    time.Time    `json:"created_at"`
}

// RestaurantID returns the restaurant the cart's lines belong to, or
// uuid.Nil for an empty cart. Mixed carts report the first line's
// restaurant; callers detect mixing with IsSingleRestaurant.
func (c *Cart) RestaurantID() uuid.UUID {
	if len(c.Lines) == 0 {
		return uuid.Nil
	}
	return c.Lines[0].RestaurantID
}

// IsSingleRestaurant reports whether every line shares one restaurant.
func (c *Cart) IsSingleRestaurant() bool {
	if len(c.Lines) == 0 {
		return true
	}
	first := c.Lines[0].RestaurantID
	for _, l := range c.Lines[1:] {
		if l.RestaurantID != first {
			return false
		}
	}
	return true
}

// FindLine returns the line matching the item, selection signature, and
// note, or nil. A differing note keeps lines apart so a kitchen note is
// never absorbed by a quantity merge.
func (c *Cart) FindLine(menuItemID uuid.UUID, sig, note string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].MenuItemID == menuItemID &&
			c.Lines[i].Note == note &&
			c.Lines[i].Selection.Signature() == sig {
			return &c.Lines[i]
		}
	}
	return nil
}

// PricedCartLine is a cart line with resolved unit and line prices.
type PricedCartLine struct {
	CartLine
	ItemName  string `json:"item_name"`
	UnitPrice Money  `json:"unit_price"`
	LineTotal Money  `json:"line_total"`
}

// CartSummary is the priced view of a cart before checkout.
type CartSummary struct {
	CartID         uuid.UUID        `json:"cart_id"`
	RestaurantID   uuid.UUID        `json:"restaurant_id"`
	Lines          []PricedCartLine `json:"lines"`
	Subtotal       Money            `json:"subtotal"`
	TaxAmount      Money            `json:"tax_amount"`
	DeliveryFee    Money            `json:"delivery_fee"`
	DiscountAmount Money            `json:"discount_amount"`
	Total          Money            `json:"total"`
	PromoCode      string           `json:"promo_code,omitempty"`
	PromoRejection string           `json:"promo_rejection,omitempty"`
}
