package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mealmesh/marketplace/internal/domain"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

var testAddressID = uuid.MustParse("70000000-0000-0000-0000-000000000001")

func checkoutFixture(t *testing.T) (*CheckoutService, *mockCartRepo, *mockOrderRepo, *mockAddressRepo, *mockPromoRepo) {
	t.Helper()
	carts := &mockCartRepo{}
	catalog := &mockCatalogRepo{}
	orders := &mockOrderRepo{}
	addresses := &mockAddressRepo{}
	promos := &mockPromoRepo{}
	stubPricing(catalog)

	cart := testCart(domain.CartLine{
		ID: uuid.New(), MenuItemID: testItemID, RestaurantID: testRestaurantID,
		Quantity: 2, Note: "extra basil", Selection: testSelection(),
	})
	carts.On("GetByCustomer", mock.Anything, testCustomerID).Return(cart, nil)

	promoSvc := NewPromoService(promos)
	promoSvc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	svc := NewCheckoutService(
		newCartService(carts, catalog),
		promoSvc,
		orders,
		addresses,
		newTestEvents(),
		nil,
		CheckoutConfig{TaxRateBasisPoints: 600, DeliveryFee: domain.Money(250)},
		newTestLogger(),
	)
	return svc, carts, orders, addresses, promos
}

func ownAddress() *domain.DeliveryAddress {
	return &domain.DeliveryAddress{ID: testAddressID, CustomerID: testCustomerID, Line1: "1 Main St", City: "Springfield"}
}

func validPromo() *domain.PromoCode {
	return &domain.PromoCode{
		ID:         uuid.New(),
		Code:       "SAVE10",
		Percentage: 10,
		ValidFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Active:     true,
	}
}

func TestCreateOrderPricing(t *testing.T) {
	svc, _, orders, addresses, promos := checkoutFixture(t)
	addresses.On("GetByID", mock.Anything, testAddressID).Return(ownAddress(), nil)
	promos.On("GetByCode", mock.Anything, "SAVE10").Return(validPromo(), nil)

	var persisted *domain.Order
	orders.On("CreateWithCartClear", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { persisted = args.Get(1).(*domain.Order) }).
		Return(nil)

	order, err := svc.CreateOrder(context.Background(), CheckoutInput{
		CustomerID:    testCustomerID,
		AddressID:     testAddressID,
		PaymentMethod: domain.PaymentMethodCash,
		PromoCode:     "SAVE10",
	})
	require.NoError(t, err)

	// subtotal 25.00, tax 1.50, fee 2.50, 10% discount 2.50 -> total 26.50.
	assert.Equal(t, domain.Money(2500), order.Subtotal)
	assert.Equal(t, domain.Money(150), order.TaxAmount)
	assert.Equal(t, domain.Money(250), order.DeliveryFee)
	assert.Equal(t, domain.Money(250), order.DiscountAmount)
	assert.Equal(t, domain.Money(2650), order.Total)
	assert.Equal(t, order.Subtotal+order.TaxAmount+order.DeliveryFee-order.DiscountAmount, order.Total)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.NotNil(t, order.PromoCodeID)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, order.OrderNumber)

	require.NotNil(t, persisted)
	require.Len(t, persisted.Lines, 1)
	assert.Equal(t, domain.Money(1250), persisted.Lines[0].UnitPrice)
	assert.Equal(t, "Margherita", persisted.Lines[0].ItemName)
	assert.Equal(t, "extra basil", persisted.Lines[0].Note)
}

func TestCreateOrderLocksAroundCartRead(t *testing.T) {
	carts := &mockCartRepo{}
	catalog := &mockCatalogRepo{}
	orders := &mockOrderRepo{}
	addresses := &mockAddressRepo{}
	stubPricing(catalog)

	var steps []string
	cart := testCart(domain.CartLine{
		ID: uuid.New(), MenuItemID: testItemID, RestaurantID: testRestaurantID,
		Quantity: 1, Selection: testSelection(),
	})
	carts.On("GetByCustomer", mock.Anything, testCustomerID).
		Run(func(mock.Arguments) { steps = append(steps, "read cart") }).
		Return(cart, nil)
	addresses.On("GetByID", mock.Anything, testAddressID).Return(ownAddress(), nil)
	orders.On("CreateWithCartClear", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { steps = append(steps, "persist") }).
		Return(nil)

	svc := NewCheckoutService(
		newCartService(carts, catalog),
		NewPromoService(&mockPromoRepo{}),
		orders,
		addresses,
		newTestEvents(),
		nil,
		CheckoutConfig{TaxRateBasisPoints: 600, DeliveryFee: domain.Money(250)},
		newTestLogger(),
	)
	svc.lock = func(ctx context.Context, customerID uuid.UUID) (func(), error) {
		steps = append(steps, "lock")
		return func() { steps = append(steps, "unlock") }, nil
	}

	_, err := svc.CreateOrder(context.Background(), CheckoutInput{
		CustomerID:    testCustomerID,
		AddressID:     testAddressID,
		PaymentMethod: domain.PaymentMethodCash,
	})
	require.NoError(t, err)
	// The cart must be read and persisted inside the lock, otherwise two
	// checkouts can price the same lines and both place an order.
	assert.Equal(t, []string{"lock", "read cart", "persist", "unlock"}, steps)
}

func TestCreateOrderRejectedWhileLockHeld(t *testing.T) {
	svc, carts, orders, addresses, _ := checkoutFixture(t)
	addresses.On("GetByID", mock.Anything, testAddressID).Return(ownAddress(), nil)
	svc.lock = func(ctx context.Context, customerID uuid.UUID) (func(), error) {
		return nil, apperrors.Conflict("checkout already in progress for this cart")
	}

	_, err := svc.CreateOrder(context.Background(), CheckoutInput{
		CustomerID:    testCustomerID,
		AddressID:     testAddressID,
		PaymentMethod: domain.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	carts.AssertNotCalled(t, "GetByCustomer", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "CreateWithCartClear", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrderInvalidPromoIsSoftFailure(t *testing.T) {
	svc, _, orders, addresses, promos := checkoutFixture(t)
	addresses.On("GetByID", mock.Anything, testAddressID).Return(ownAddress(), nil)
	promos.On("GetByCode", mock.Anything, "GONE").
		Return(nil, apperrors.NotFound("promo code", "GONE"))
	orders.On("CreateWithCartClear", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	order, err := svc.CreateOrder(context.Background(), CheckoutInput{
		CustomerID:    testCustomerID,
		AddressID:     testAddressID,
		PaymentMethod: domain.PaymentMethodCash,
		PromoCode:     "GONE",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Money(0), order.DiscountAmount)
	assert.Nil(t, order.PromoCodeID)
	// 25.00 + 1.50 + 2.50 with no discount.
	assert.Equal(t, domain.Money(2900), order.Total)
}

func TestCreateOrderAddressOwnership(t *testing.T) {
	svc, _, _, addresses, _ := checkoutFixture(t)
	other := ownAddress()
	other.CustomerID = uuid.New()
	addresses.On("GetByID", mock.Anything, testAddressID).Return(other, nil)

	_, err := svc.CreateOrder(context.Background(), CheckoutInput{
		CustomerID:    testCustomerID,
		AddressID:     testAddressID,
		PaymentMethod: domain.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCreateOrderInvalidPaymentMethod(t *testing.T) {
	svc, _, _, _, _ := checkoutFixture(t)
	_, err := svc.CreateOrder(context.Background(), CheckoutInput{
		CustomerID:    testCustomerID,
		AddressID:     testAddressID,
		PaymentMethod: "crypto",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateOrderCardWithTxnRefIsPaid(t *testing.T) {
	svc, _, orders, addresses, _ := checkoutFixture(t)
	addresses.On("GetByID", mock.Anything, testAddressID).Return(ownAddress(), nil)
	orders.On("CreateWithCartClear", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	order, err := svc.CreateOrder(context.Background(), CheckoutInput{
		CustomerID:     testCustomerID,
		AddressID:      testAddressID,
		PaymentMethod:  domain.PaymentMethodCard,
		ProviderTxnRef: "pi_123",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "pi_123", order.ProviderTxnRef)
}

func TestCreateOrderExplicitAmounts(t *testing.T) {
	svc, _, orders, addresses, _ := checkoutFixture(t)
	addresses.On("GetByID", mock.Anything, testAddressID).Return(ownAddress(), nil)
	orders.On("CreateWithCartClear", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	tax := domain.Money(175)
	fee := domain.Money(0)
	order, err := svc.CreateOrder(context.Background(), CheckoutInput{
		CustomerID:    testCustomerID,
		AddressID:     testAddressID,
		PaymentMethod: domain.PaymentMethodCash,
		Tax:           &tax,
		DeliveryFee:   &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Money(175), order.TaxAmount)
	assert.Equal(t, domain.Money(0), order.DeliveryFee)
	assert.Equal(t, domain.Money(2675), order.Total)
}

func TestSummaryReportsPromoRejection(t *testing.T) {
	svc, _, _, _, promos := checkoutFixture(t)
	expired := validPromo()
	expired.ValidUntil = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	promos.On("GetByCode", mock.Anything, "SAVE10").Return(expired, nil)

	summary, err := svc.Summary(context.Background(), testCustomerID, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(0), summary.DiscountAmount)
	assert.Equal(t, "expired", summary.PromoRejection)
	assert.Equal(t, domain.Money(2900), summary.Total)
}
