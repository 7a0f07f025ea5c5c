package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mealmesh/marketplace/internal/domain"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	CustomerID   *uuid.UUID
	RestaurantID *uuid.UUID
	Status       string
	Page         int
	PageSize     int
}

// CatalogRepository reads menu items and option prices.
type CatalogRepository interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (*domain.MenuItem, error)
	GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.MenuItem, error)
	GetMenuItemOptions(ctx context.Context, menuItemID uuid.UUID) (*domain.MenuItemOptions, error)
	GetVariationOptionPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Money, error)
	GetAddOnOptionPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Money, error)
}

// CartRepository persists carts and their lines.
type CartRepository interface {
	GetByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	Create(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error)
	AddLine(ctx context.Context, line *domain.CartLine) error
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	RemoveLine(ctx context.Context, lineID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// PromoRepository reads promo codes.
type PromoRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)
}

// AddressRepository reads delivery addresses.
type AddressRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryAddress, error)
}

// OrderRepository persists orders, their lines, and the status audit trail.
type OrderRepository interface {
	// CreateWithCartClear inserts the order, its lines, the initial status
	// history row, and clears the source cart in one transaction.
	CreateWithCartClear(ctx context.Context, order *domain.Order, cartID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int64, error)
	// UpdateStatus moves the order from fromStatus to toStatus, appending a
	// history row. Returns apperrors.Conflict when the stored status no
	// longer matches fromStatus.
	UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus, actor, reason string, deliveredAt *time.Time) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus string) error
	// MarkCancelled sets status, cancel reason, and payment status in one
	// transaction, guarded by the expected current status.
	MarkCancelled(ctx context.Context, id uuid.UUID, fromStatus, actor, reason, paymentStatus string) error
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]domain.StatusHistoryEntry, error)
}
