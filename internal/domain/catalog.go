package domain

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is a sellable catalog entry offered by a restaurant.
type MenuItem struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	BasePrice    Money     `json:"base_price"`
	Available    bool      `json:"available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductVariation is a single-choice customization group, e.g. size.
type ProductVariation struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Required   bool      `json:"required"`
}

// VariationOption is one choice within a variation group. Its modifier
// adjusts the item base price and may be negative.
type VariationOption struct {
	ID            uuid.UUID `json:"id"`
	VariationID   uuid.UUID `json:"variation_id"`
	Name          string    `json:"name"`
	PriceModifier Money     `json:"price_modifier"`
}

// ProductAddOn is a multi-choice customization group, e.g. extra
// toppings. MaxSelections of zero means no limit.
type ProductAddOn struct {
	ID            uuid.UUID `json:"id"`
	MenuItemID    uuid.UUID `json:"menu_item_id"`
	Name          string    `json:"name"`
	MaxSelections int       `json:"max_selections"`
}

// AddOnOption is one choice within an add-on group, priced additively.
type AddOnOption struct {
	ID      uuid.UUID `json:"id"`
	AddOnID uuid.UUID `json:"add_on_id"`
	Name    string    `json:"name"`
	Price   Money     `json:"price"`
}

// VariationGroup is a variation with the option IDs it offers.
type VariationGroup struct {
	ProductVariation
	OptionIDs []uuid.UUID `json:"option_ids"`
}

// AddOnGroup is an add-on with the option IDs it offers.
type AddOnGroup struct {
	ProductAddOn
	OptionIDs []uuid.UUID `json:"option_ids"`
}

// MenuItemOptions bundles an item's customization groups for selection
// validation.
type MenuItemOptions struct {
	Variations []VariationGroup `json:"variations"`
	AddOns     []AddOnGroup     `json:"add_ons"`
}
