package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/event"
	"github.com/mealmesh/marketplace/internal/repository"
	"github.com/mealmesh/marketplace/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestEvents points the producer at an unreachable broker; publishes
// fail fast and are swallowed, matching production behavior on outage.
func newTestEvents() *event.Producer {
	return event.NewProducer(kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      []string{"127.0.0.1:1"},
		BatchTimeout: time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxAttempts:  1,
	}))
}

type mockCatalogRepo struct{ mock.Mock }

func (m *mockCatalogRepo) GetMenuItem(ctx context.Context, id uuid.UUID) (*domain.MenuItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MenuItem), args.Error(1)
}

func (m *mockCatalogRepo) GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.MenuItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*domain.MenuItem), args.Error(1)
}

func (m *mockCatalogRepo) GetMenuItemOptions(ctx context.Context, menuItemID uuid.UUID) (*domain.MenuItemOptions, error) {
	args := m.Called(ctx, menuItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MenuItemOptions), args.Error(1)
}

func (m *mockCatalogRepo) GetVariationOptionPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Money, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]domain.Money), args.Error(1)
}

func (m *mockCatalogRepo) GetAddOnOptionPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Money, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]domain.Money), args.Error(1)
}

type mockCartRepo struct{ mock.Mock }

func (m *mockCartRepo) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepo) Create(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepo) AddLine(ctx context.Context, line *domain.CartLine) error {
	return m.Called(ctx, line).Error(0)
}

func (m *mockCartRepo) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	return m.Called(ctx, lineID, quantity).Error(0)
}

func (m *mockCartRepo) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	return m.Called(ctx, lineID).Error(0)
}

func (m *mockCartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	return m.Called(ctx, cartID).Error(0)
}

type mockPromoRepo struct{ mock.Mock }

func (m *mockPromoRepo) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromoCode), args.Error(1)
}

type mockAddressRepo struct{ mock.Mock }

func (m *mockAddressRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryAddress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeliveryAddress), args.Error(1)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) CreateWithCartClear(ctx context.Context, order *domain.Order, cartID uuid.UUID) error {
	return m.Called(ctx, order, cartID).Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Order), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus, actor, reason string, deliveredAt *time.Time) error {
	return m.Called(ctx, id, fromStatus, toStatus, actor, reason, deliveredAt).Error(0)
}

func (m *mockOrderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus string) error {
	return m.Called(ctx, id, paymentStatus).Error(0)
}

func (m *mockOrderRepo) MarkCancelled(ctx context.Context, id uuid.UUID, fromStatus, actor, reason, paymentStatus string) error {
	return m.Called(ctx, id, fromStatus, actor, reason, paymentStatus).Error(0)
}

func (m *mockOrderRepo) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]domain.StatusHistoryEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusHistoryEntry), args.Error(1)
}
