package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/payment"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

func newCancelService(orders *mockOrderRepo, provider payment.Provider) *CancellationService {
	return NewCancellationService(orders, provider, newTestEvents(), newTestLogger())
}

func paidCardOrder() *domain.Order {
	o := pendingOrder()
	o.PaymentMethod = domain.PaymentMethodCard
	o.PaymentStatus = domain.PaymentStatusPaid
	o.ProviderTxnRef = "pi_123"
	return o
}

func TestCancelPaidCardOrderRefunds(t *testing.T) {
	orders := &mockOrderRepo{}
	provider := payment.NewMockProvider()
	order := paidCardOrder()
	cancelled := paidCardOrder()
	cancelled.Status = domain.OrderStatusCancelled

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()
	orders.On("MarkCancelled", mock.Anything, order.ID,
		domain.OrderStatusPending, ActorCustomer, "changed my mind", domain.PaymentStatusRefundInitiated).
		Return(nil)
	orders.On("GetByID", mock.Anything, order.ID).Return(cancelled, nil)

	svc := newCancelService(orders, provider)
	result, err := svc.Cancel(context.Background(), order.ID, testCustomerID, "changed my mind")
	require.NoError(t, err)
	assert.True(t, result.RefundInitiated)
	assert.Equal(t, domain.OrderStatusCancelled, result.Order.Status)

	// Exactly one refund call, for the full amount, keyed to this order.
	refunds := provider.Refunds()
	require.Len(t, refunds, 1)
	assert.Equal(t, "pi_123", refunds[0].TransactionRef)
	assert.Equal(t, order.Total, refunds[0].Amount)
	assert.Equal(t, "cancel-refund-"+order.ID.String(), refunds[0].IdempotencyKey)
}

func TestCancelCashOrderNoRefund(t *testing.T) {
	orders := &mockOrderRepo{}
	provider := payment.NewMockProvider()
	order := pendingOrder()
	cancelled := pendingOrder()
	cancelled.Status = domain.OrderStatusCancelled

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()
	orders.On("MarkCancelled", mock.Anything, order.ID,
		domain.OrderStatusPending, ActorCustomer, "changed my mind", domain.PaymentStatusPending).
		Return(nil)
	orders.On("GetByID", mock.Anything, order.ID).Return(cancelled, nil)

	svc := newCancelService(orders, provider)
	result, err := svc.Cancel(context.Background(), order.ID, testCustomerID, "changed my mind")
	require.NoError(t, err)
	assert.False(t, result.RefundInitiated)
	assert.Empty(t, provider.Refunds())
}

func TestCancelSucceedsWhenRefundFails(t *testing.T) {
	orders := &mockOrderRepo{}
	provider := payment.NewMockProvider()
	provider.FailWith = assert.AnError
	order := paidCardOrder()
	cancelled := paidCardOrder()
	cancelled.Status = domain.OrderStatusCancelled

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()
	orders.On("MarkCancelled", mock.Anything, order.ID,
		domain.OrderStatusPending, ActorCustomer, "changed my mind", domain.PaymentStatusRefundInitiated).
		Return(nil)
	orders.On("UpdatePaymentStatus", mock.Anything, order.ID, domain.PaymentStatusPaid).Return(nil)
	orders.On("GetByID", mock.Anything, order.ID).Return(cancelled, nil)

	svc := newCancelService(orders, provider)
	result, err := svc.Cancel(context.Background(), order.ID, testCustomerID, "changed my mind")
	require.NoError(t, err)
	assert.False(t, result.RefundInitiated)
	assert.Equal(t, domain.OrderStatusCancelled, result.Order.Status)
}

func TestCancelAfterAcceptanceRejected(t *testing.T) {
	orders := &mockOrderRepo{}
	order := pendingOrder()
	order.Status = domain.OrderStatusAccepted
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := newCancelService(orders, payment.NewMockProvider())
	_, err := svc.Cancel(context.Background(), order.ID, testCustomerID, "changed my mind")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	orders.AssertNotCalled(t, "MarkCancelled",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelOwnership(t *testing.T) {
	orders := &mockOrderRepo{}
	order := pendingOrder()
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := newCancelService(orders, payment.NewMockProvider())
	_, err := svc.Cancel(context.Background(), order.ID, uuid.New(), "changed my mind")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCancelReasonTooShort(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newCancelService(orders, payment.NewMockProvider())
	_, err := svc.Cancel(context.Background(), uuid.New(), testCustomerID, "eh")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCancelRaceSurfacesConflict(t *testing.T) {
	orders := &mockOrderRepo{}
	provider := payment.NewMockProvider()
	order := pendingOrder()

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	// The restaurant accepted between our read and write.
	orders.On("MarkCancelled", mock.Anything, order.ID,
		domain.OrderStatusPending, ActorCustomer, "changed my mind", domain.PaymentStatusPending).
		Return(apperrors.Conflict("order status changed concurrently"))

	svc := newCancelService(orders, provider)
	_, err := svc.Cancel(context.Background(), order.ID, testCustomerID, "changed my mind")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Empty(t, provider.Refunds())
}
