package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPending        = "pending"
	OrderStatusAccepted       = "accepted"
	OrderStatusPreparing      = "preparing"
	OrderStatusReady          = "ready"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
	OrderStatusRejected       = "rejected"
)

// Payment statuses.
const (
	PaymentStatusPending         = "pending"
	PaymentStatusPaid            = "paid"
	PaymentStatusFailed          = "failed"
	PaymentStatusRefundInitiated = "refund_initiated"
	PaymentStatusRefunded        = "refunded"
)

// Payment methods.
const (
	PaymentMethodCard = "card"
	PaymentMethodCash = "cash"
)

// fulfillmentChain is the forward progression a restaurant drives after
// accepting an order.
var fulfillmentChain = []string{
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// AllowedTransitions maps each status to the statuses it may move to.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:        {OrderStatusAccepted, OrderStatusRejected, OrderStatusCancelled},
		OrderStatusAccepted:       {OrderStatusPreparing},
		OrderStatusPreparing:      {OrderStatusReady},
		OrderStatusReady:          {OrderStatusOutForDelivery},
		OrderStatusOutForDelivery: {OrderStatusDelivered},
		OrderStatusDelivered:      {},
		OrderStatusCancelled:      {},
		OrderStatusRejected:       {},
	}
}

// CanTransition reports whether from may move directly to to.
func CanTransition(from, to string) bool {
	for _, allowed := range AllowedTransitions()[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanAdvance reports whether a restaurant may move the order from from to
// to. Forward jumps within the fulfillment chain are allowed, backward
// moves are not.
func CanAdvance(from, to string) bool {
	fromIdx, toIdx := -1, -1
	for i, s := range fulfillmentChain {
		if s == from {
			fromIdx = i
		}
		if s == to {
			toIdx = i
		}
	}
	return fromIdx >= 0 && toIdx > fromIdx
}

// NextFulfillmentStatus returns the status that follows from in the
// fulfillment chain, or "" when from has no forward step.
func NextFulfillmentStatus(from string) string {
	for i, s := range fulfillmentChain {
		if s == from && i+1 < len(fulfillmentChain) {
			return fulfillmentChain[i+1]
		}
	}
	return ""
}

// IsTerminalStatus reports whether the status admits no further moves.
func IsTerminalStatus(status string) bool {
	return len(AllowedTransitions()[status]) == 0
}

// IsValidOrderStatus reports whether status is a known order status.
func IsValidOrderStatus(status string) bool {
	_, ok := AllowedTransitions()[status]
	return ok
}

// Order is a placed, immutable-priced order.
type Order struct {
	ID                  uuid.UUID   `json:"id"`
	OrderNumber         string      `json:"order_number"`
	CustomerID          uuid.UUID   `json:"customer_id"`
	RestaurantID        uuid.UUID   `json:"restaurant_id"`
	AddressID           uuid.UUID   `json:"address_id"`
	Status              string      `json:"status"`
	PaymentStatus       string      `json:"payment_status"`
	PaymentMethod       string      `json:"payment_method"`
	ProviderTxnRef      string      `json:"provider_txn_ref,omitempty"`
	Lines               []OrderLine `json:"lines"`
	Subtotal            Money       `json:"subtotal"`
	TaxAmount           Money       `json:"tax_amount"`
	DeliveryFee         Money       `json:"delivery_fee"`
	DiscountAmount      Money       `json:"discount_amount"`
	Total               Money       `json:"total"`
	PromoCodeID         *uuid.UUID  `json:"promo_code_id,omitempty"`
	SpecialInstructions string      `json:"special_instructions,omitempty"`
	CancelReason        string      `json:"cancel_reason,omitempty"`
	ActualDeliveryTime  *time.Time  `json:"actual_delivery_time,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// OrderLine is a priced snapshot of a cart line at checkout. Prices are
// frozen; later catalog changes do not affect placed orders.
type OrderLine struct {
	ID         uuid.UUID    `json:"id"`
	OrderID    uuid.UUID    `json:"order_id"`
	MenuItemID uuid.UUID    `json:"menu_item_id"`
	ItemName   string       `json:"item_name"`
	Quantity   int          `json:"quantity"`
	Note       string       `json:"note,omitempty"`
	Selection  SelectionSet `json:"selection"`
	UnitPrice  Money        `json:"unit_price"`
	LineTotal  Money        `json:"line_total"`
}

// StatusHistoryEntry is one audit row for an order status change.
type StatusHistoryEntry struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RefundEligible reports whether cancelling this order should trigger a
// payment refund. Only card orders already paid qualify.
func (o *Order) RefundEligible() bool {
	return o.PaymentMethod == PaymentMethodCard &&
		o.PaymentStatus == PaymentStatusPaid &&
		o.ProviderTxnRef != ""
}

// CancellableByCustomer reports whether the customer may still cancel.
func (o *Order) CancellableByCustomer() bool {
	return o.Status == OrderStatusPending
}
