package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/event"
	"github.com/mealmesh/marketplace/internal/repository"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

const minReasonLength = 5

// Actors recorded in the status audit trail.
const (
	ActorCustomer   = "customer"
	ActorRestaurant = "restaurant"
)

// OrderService drives restaurant-side order transitions and reads.
type OrderService struct {
	orders repository.OrderRepository
	events *event.Producer
	logger *slog.Logger
	now    func() time.Time
}

// NewOrderService creates an order service.
func NewOrderService(orders repository.OrderRepository, events *event.Producer, l *slog.Logger) *OrderService {
	return &OrderService{orders: orders, events: events, logger: l, now: time.Now}
}

// Get loads an order.
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// History returns the order's status audit trail.
func (s *OrderService) History(ctx context.Context, id uuid.UUID) ([]domain.StatusHistoryEntry, error) {
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.orders.GetStatusHistory(ctx, id)
}

// List returns a filtered page of orders with the total count.
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int64, error) {
	if filter.Status != "" && !domain.IsValidOrderStatus(filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", filter.Status))
	}
	return s.orders.List(ctx, filter)
}

// Accept moves a pending order to accepted on behalf of its restaurant.
func (s *OrderService) Accept(ctx context.Context, orderID, restaurantID uuid.UUID) (*domain.Order, error) {
	order, err := s.ownedByRestaurant(ctx, orderID, restaurantID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("only pending orders can be accepted, order is %s", order.Status))
	}
	return s.transition(ctx, order, domain.OrderStatusAccepted, "")
}

// Decline rejects a pending order. A reason is required.
func (s *OrderService) Decline(ctx context.Context, orderID, restaurantID uuid.UUID, reason string) (*domain.Order, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < minReasonLength {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("decline reason must be at least %d characters", minReasonLength))
	}
	order, err := s.ownedByRestaurant(ctx, orderID, restaurantID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("only pending orders can be declined, order is %s", order.Status))
	}
	return s.transition(ctx, order, domain.OrderStatusRejected, reason)
}

// Advance moves an accepted order forward through fulfillment. Forward
// jumps are allowed, backward moves and terminal states are not.
func (s *OrderService) Advance(ctx context.Context, orderID, restaurantID uuid.UUID, toStatus string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(toStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", toStatus))
	}
	order, err := s.ownedByRestaurant(ctx, orderID, restaurantID)
	if err != nil {
		return nil, err
	}
	if !domain.CanAdvance(order.Status, toStatus) {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("cannot move order from %s to %s", order.Status, toStatus))
	}
	return s.transition(ctx, order, toStatus, "")
}

// UpdatePaymentStatus corrects the payment status of a cash order. Card
// orders are settled by the payment provider and cannot be corrected
// here; terminal orders are immutable.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID, restaurantID uuid.UUID, paymentStatus string) (*domain.Order, error) {
	switch paymentStatus {
	case domain.PaymentStatusPending, domain.PaymentStatusPaid, domain.PaymentStatusFailed:
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown payment status %q", paymentStatus))
	}

	order, err := s.ownedByRestaurant(ctx, orderID, restaurantID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != domain.PaymentMethodCash {
		return nil, apperrors.InvalidInput("payment status can only be corrected for cash orders")
	}
	if domain.IsTerminalStatus(order.Status) {
		return nil, apperrors.InvalidInput("cannot change payment status of a completed order")
	}

	if err := s.orders.UpdatePaymentStatus(ctx, orderID, paymentStatus); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

func (s *OrderService) ownedByRestaurant(ctx context.Context, orderID, restaurantID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RestaurantID != restaurantID {
		return nil, apperrors.Forbidden("order does not belong to this restaurant")
	}
	return order, nil
}

func (s *OrderService) transition(ctx context.Context, order *domain.Order, toStatus, reason string) (*domain.Order, error) {
	var deliveredAt *time.Time
	if toStatus == domain.OrderStatusDelivered {
		t := s.now().UTC()
		deliveredAt = &t
	}

	err := s.orders.UpdateStatus(ctx, order.ID, order.Status, toStatus, ActorRestaurant, reason, deliveredAt)
	if err != nil {
		return nil, err
	}

	s.events.OrderStatusChanged(ctx, order.ID.String(), order.Status, toStatus, ActorRestaurant, reason)
	return s.orders.GetByID(ctx, order.ID)
}
