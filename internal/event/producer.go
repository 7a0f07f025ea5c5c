package event

import (
	"context"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/pkg/kafka"
	"github.com/mealmesh/marketplace/pkg/logger"
)

// Topics for order lifecycle events.
const (
	TopicOrderCreated       = "marketplace.order.created"
	TopicOrderStatusChanged = "marketplace.order.status_changed"
	TopicOrderCancelled     = "marketplace.order.cancelled"
)

const (
	aggregateTypeOrder = "order"
	source             = "marketplace-api"
)

// OrderCreatedPayload notifies downstream consumers of a new order.
type OrderCreatedPayload struct {
	OrderID      string       `json:"order_id"`
	OrderNumber  string       `json:"order_number"`
	CustomerID   string       `json:"customer_id"`
	RestaurantID string       `json:"restaurant_id"`
	Total        domain.Money `json:"total"`
}

// OrderStatusChangedPayload notifies of a lifecycle transition.
type OrderStatusChangedPayload struct {
	OrderID    string `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Actor      string `json:"actor"`
	Reason     string `json:"reason,omitempty"`
}

// OrderCancelledPayload notifies of a cancellation and any refund.
type OrderCancelledPayload struct {
	OrderID         string       `json:"order_id"`
	Reason          string       `json:"reason"`
	RefundInitiated bool         `json:"refund_initiated"`
	RefundAmount    domain.Money `json:"refund_amount,omitempty"`
}

// Producer publishes order events. Publish failures are logged and
// swallowed; events are best-effort notifications, never part of the
// transactional outcome.
type Producer struct {
	producer *kafka.Producer
}

// NewProducer wraps the shared Kafka producer.
func NewProducer(p *kafka.Producer) *Producer {
	return &Producer{producer: p}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID string, payload any) {
	l := logger.FromContext(ctx)
	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateTypeOrder, source, payload)
	if err != nil {
		l.Error("building event", "topic", topic, "error", err)
		return
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)
	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		l.Error("publishing event", "topic", topic, "event_type", eventType, "error", err)
		return
	}
	l.Debug("event published", "topic", topic, "event_type", eventType, "aggregate_id", aggregateID)
}

// OrderCreated publishes an order-created event.
func (p *Producer) OrderCreated(ctx context.Context, order *domain.Order) {
	p.publish(ctx, TopicOrderCreated, "order.created", order.ID.String(), OrderCreatedPayload{
		OrderID:      order.ID.String(),
		OrderNumber:  order.OrderNumber,
		CustomerID:   order.CustomerID.String(),
		RestaurantID: order.RestaurantID.String(),
		Total:        order.Total,
	})
}

// OrderStatusChanged publishes a status transition event.
func (p *Producer) OrderStatusChanged(ctx context.Context, orderID, fromStatus, toStatus, actor, reason string) {
	p.publish(ctx, TopicOrderStatusChanged, "order.status_changed", orderID, OrderStatusChangedPayload{
		OrderID:    orderID,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Actor:      actor,
		Reason:     reason,
	})
}

// OrderCancelled publishes a cancellation event.
func (p *Producer) OrderCancelled(ctx context.Context, orderID, reason string, refundInitiated bool, refundAmount domain.Money) {
	p.publish(ctx, TopicOrderCancelled, "order.cancelled", orderID, OrderCancelledPayload{
		OrderID:         orderID,
		Reason:          reason,
		RefundInitiated: refundInitiated,
		RefundAmount:    refundAmount,
	})
}
