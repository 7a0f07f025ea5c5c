package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mealmesh/marketplace/internal/domain"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

func deliveredOrder() *domain.Order {
	o := pendingOrder()
	o.Status = domain.OrderStatusDelivered
	o.Lines = []domain.OrderLine{{
		ID:         uuid.New(),
		OrderID:    o.ID,
		MenuItemID: testItemID,
		ItemName:   "Margherita",
		Quantity:   2,
		Note:       "no onions",
		Selection:  testSelection().Canonical(),
		UnitPrice:  domain.Money(1250),
		LineTotal:  domain.Money(2500),
	}}
	return o
}

func TestReorderIntoEmptyCart(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := &mockCartRepo{}
	order := deliveredOrder()
	cart := testCart()

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	carts.On("GetByCustomer", mock.Anything, testCustomerID).Return(cart, nil)
	carts.On("AddLine", mock.Anything, mock.MatchedBy(func(line *domain.CartLine) bool {
		return line.MenuItemID == testItemID && line.Quantity == 2 &&
			line.Note == "no onions" &&
			line.Selection.Signature() == testSelection().Signature()
	})).Return(nil)
	carts.On("GetByID", mock.Anything, cart.ID).Return(cart, nil)

	svc := NewReorderService(orders, carts, newTestLogger())
	result, err := svc.Reorder(context.Background(), order.ID, testCustomerID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, result.CartID)
	assert.Equal(t, 1, result.ItemsAdded)
}

func TestReorderMergesMatchingLine(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := &mockCartRepo{}
	order := deliveredOrder()

	existing := domain.CartLine{
		ID: uuid.New(), MenuItemID: testItemID, RestaurantID: testRestaurantID,
		Quantity: 2, Note: "no onions", Selection: testSelection().Canonical(),
	}
	cart := testCart(existing)

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	carts.On("GetByCustomer", mock.Anything, testCustomerID).Return(cart, nil)
	// Same item, same signature: quantities merge to 4 instead of a
	// second line appearing.
	carts.On("UpdateLineQuantity", mock.Anything, existing.ID, 4).Return(nil)
	carts.On("GetByID", mock.Anything, cart.ID).Return(cart, nil)

	svc := NewReorderService(orders, carts, newTestLogger())
	result, err := svc.Reorder(context.Background(), order.ID, testCustomerID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsAdded)
	carts.AssertNotCalled(t, "AddLine", mock.Anything, mock.Anything)
}

func TestReorderCancelledOrderAllowed(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := &mockCartRepo{}
	order := deliveredOrder()
	order.Status = domain.OrderStatusCancelled
	cart := testCart()

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	carts.On("GetByCustomer", mock.Anything, testCustomerID).Return(cart, nil)
	carts.On("AddLine", mock.Anything, mock.Anything).Return(nil)
	carts.On("GetByID", mock.Anything, cart.ID).Return(cart, nil)

	svc := NewReorderService(orders, carts, newTestLogger())
	_, err := svc.Reorder(context.Background(), order.ID, testCustomerID)
	assert.NoError(t, err)
}

func TestReorderActiveOrderRejected(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := &mockCartRepo{}
	order := deliveredOrder()
	order.Status = domain.OrderStatusPreparing

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewReorderService(orders, carts, newTestLogger())
	_, err := svc.Reorder(context.Background(), order.ID, testCustomerID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestReorderOwnership(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := &mockCartRepo{}
	order := deliveredOrder()
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewReorderService(orders, carts, newTestLogger())
	_, err := svc.Reorder(context.Background(), order.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestReorderCreatesCartWhenMissing(t *testing.T) {
	orders := &mockOrderRepo{}
	carts := &mockCartRepo{}
	order := deliveredOrder()
	cart := testCart()

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	carts.On("GetByCustomer", mock.Anything, testCustomerID).
		Return(nil, apperrors.NotFound("cart", testCustomerID.String()))
	carts.On("Create", mock.Anything, testCustomerID).Return(cart, nil)
	carts.On("AddLine", mock.Anything, mock.Anything).Return(nil)
	carts.On("GetByID", mock.Anything, cart.ID).Return(cart, nil)

	svc := NewReorderService(orders, carts, newTestLogger())
	result, err := svc.Reorder(context.Background(), order.ID, testCustomerID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, result.CartID)
}
