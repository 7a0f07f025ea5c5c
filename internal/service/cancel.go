package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/event"
	"github.com/mealmesh/marketplace/internal/payment"
	"github.com/mealmesh/marketplace/internal/repository"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
	"github.com/mealmesh/marketplace/pkg/logger"
)

// CancelResult reports a cancellation outcome. RefundInitiated is false
// both when the order needed no refund and when the provider call failed;
// the order is cancelled either way.
type CancelResult struct {
	Order           *domain.Order
	RefundInitiated bool
}

// CancellationService cancels customer orders and coordinates refunds.
type CancellationService struct {
	orders   repository.OrderRepository
	provider payment.Provider
	events   *event.Producer
	logger   *slog.Logger
}

// NewCancellationService creates a cancellation service.
func NewCancellationService(orders repository.OrderRepository, provider payment.Provider, events *event.Producer, l *slog.Logger) *CancellationService {
	return &CancellationService{orders: orders, provider: provider, events: events, logger: l}
}

// Cancel cancels a pending order owned by customerID. Refund eligibility
// is captured before the status write. The refund runs after the cancel
// commits; its failure is logged and never surfaced to the caller.
func (s *CancellationService) Cancel(ctx context.Context, orderID, customerID uuid.UUID, reason string) (*CancelResult, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < minReasonLength {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("cancellation reason must be at least %d characters", minReasonLength))
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, apperrors.Forbidden("order does not belong to caller")
	}
	if !order.CancellableByCustomer() {
		return nil, apperrors.InvalidInput("cannot cancel after acceptance")
	}

	// Eligibility is decided on the pre-mutation snapshot so the refund
	// fires exactly once even if the read is repeated.
	refundable := order.RefundEligible()
	paymentStatus := order.PaymentStatus
	if refundable {
		paymentStatus = domain.PaymentStatusRefundInitiated
	}

	err = s.orders.MarkCancelled(ctx, orderID, order.Status, ActorCustomer, reason, paymentStatus)
	if err != nil {
		return nil, err
	}

	refundInitiated := false
	if refundable {
		refundInitiated = s.refund(ctx, order, reason)
		if !refundInitiated {
			// The cancel stands; flag the payment for manual follow-up.
			if err := s.orders.UpdatePaymentStatus(ctx, orderID, domain.PaymentStatusPaid); err != nil {
				logger.FromContext(ctx).Error("reverting payment status after failed refund",
					"order_id", orderID, "error", err)
			}
		}
	}

	s.events.OrderCancelled(ctx, orderID.String(), reason, refundInitiated, order.Total)

	cancelled, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &CancelResult{Order: cancelled, RefundInitiated: refundInitiated}, nil
}

// refund calls the provider once for the full order amount. The order ID
// keys idempotency: one cancellation, at most one provider-side refund.
func (s *CancellationService) refund(ctx context.Context, order *domain.Order, reason string) bool {
	l := logger.FromContext(ctx)
	result, err := s.provider.Refund(ctx, &payment.RefundInput{
		TransactionRef: order.ProviderTxnRef,
		Amount:         order.Total,
		IdempotencyKey: "cancel-refund-" + order.ID.String(),
		Reason:         reason,
	})
	if err != nil {
		l.Error("refund failed, order remains cancelled",
			"order_id", order.ID,
			"provider", s.provider.Name(),
			"amount", order.Total.String(),
			"error", err,
		)
		return false
	}
	l.Info("refund initiated",
		"order_id", order.ID,
		"provider", s.provider.Name(),
		"refund_ref", result.RefundRef,
		"amount", order.Total.String(),
	)
	return true
}
