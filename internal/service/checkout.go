package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/event"
	"github.com/mealmesh/marketplace/internal/repository"
	"github.com/mealmesh/marketplace/pkg/database"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
	"github.com/mealmesh/marketplace/pkg/logger"
)

const orderNumberAttempts = 3

// CheckoutInput describes a checkout request.
type CheckoutInput struct {
	CustomerID          uuid.UUID
	AddressID           uuid.UUID
	PaymentMethod       string
	PromoCode           string
	ProviderTxnRef      string
	SpecialInstructions string
	// Tax and DeliveryFee override the configured defaults when set.
	Tax         *domain.Money
	DeliveryFee *domain.Money
}

// CheckoutConfig holds pricing defaults applied when the caller supplies
// no explicit amounts.
type CheckoutConfig struct {
	TaxRateBasisPoints int
	DeliveryFee        domain.Money
	LockTTL            time.Duration
}

// CheckoutService turns a cart into a persisted order.
type CheckoutService struct {
	carts     *CartService
	promos    *PromoService
	orders    repository.OrderRepository
	addresses repository.AddressRepository
	events    *event.Producer
	redis     *redis.Client
	cfg       CheckoutConfig
	logger    *slog.Logger
	now       func() time.Time
	lock      func(ctx context.Context, customerID uuid.UUID) (func(), error)
}

// NewCheckoutService creates a checkout service.
func NewCheckoutService(
	carts *CartService,
	promos *PromoService,
	orders repository.OrderRepository,
	addresses repository.AddressRepository,
	events *event.Producer,
	rdb *redis.Client,
	cfg CheckoutConfig,
	l *slog.Logger,
) *CheckoutService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Second
	}
	s := &CheckoutService{
		carts:     carts,
		promos:    promos,
		orders:    orders,
		addresses: addresses,
		events:    events,
		redis:     rdb,
		cfg:       cfg,
		logger:    l,
		now:       time.Now,
	}
	s.lock = s.lockCheckout
	return s
}

// Summary prices the cart and evaluates the promo code without placing an
// order. An invalid promo is reported via PromoRejection, not an error.
func (s *CheckoutService) Summary(ctx context.Context, customerID uuid.UUID, promoCode string) (*domain.CartSummary, error) {
	summary, err := s.carts.Aggregate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	summary.TaxAmount = s.defaultTax(summary.Subtotal)
	summary.DeliveryFee = s.cfg.DeliveryFee

	if promoCode != "" {
		result, err := s.promos.Apply(ctx, promoCode, summary.RestaurantID)
		if err != nil {
			return nil, err
		}
		if result.Valid {
			summary.PromoCode = strings.ToUpper(promoCode)
			summary.DiscountAmount = summary.Subtotal.PercentOf(result.Percentage)
		} else {
			summary.PromoRejection = RejectionMessage(result.Reason)
		}
	}

	summary.Total = summary.Subtotal + summary.TaxAmount + summary.DeliveryFee - summary.DiscountAmount
	return summary, nil
}

// CreateOrder prices the cart, freezes the amounts into an order, clears
// the cart, and emits an order-created event. Pricing, order insert, and
// cart clearing are one transaction. The per-customer lock is taken
// before the cart is read, so a second checkout cannot price the same
// lines while the first is persisting them.
func (s *CheckoutService) CreateOrder(ctx context.Context, in CheckoutInput) (*domain.Order, error) {
	if in.PaymentMethod != domain.PaymentMethodCard && in.PaymentMethod != domain.PaymentMethodCash {
		return nil, apperrors.InvalidInput("payment method must be card or cash")
	}

	address, err := s.addresses.GetByID(ctx, in.AddressID)
	if err != nil {
		return nil, err
	}
	if address.CustomerID != in.CustomerID {
		return nil, apperrors.Forbidden("delivery address does not belong to caller")
	}

	unlock, err := s.lock(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	summary, err := s.carts.Aggregate(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	tax := s.defaultTax(summary.Subtotal)
	if in.Tax != nil {
		tax = *in.Tax
	}
	deliveryFee := s.cfg.DeliveryFee
	if in.DeliveryFee != nil {
		deliveryFee = *in.DeliveryFee
	}

	var discount domain.Money
	var promoCodeID *uuid.UUID
	if in.PromoCode != "" {
		result, err := s.promos.Apply(ctx, in.PromoCode, summary.RestaurantID)
		if err != nil {
			return nil, err
		}
		if result.Valid {
			discount = summary.Subtotal.PercentOf(result.Percentage)
			id := result.PromoCodeID
			promoCodeID = &id
		} else {
			// An invalid promo does not fail checkout; the order simply
			// carries no discount.
			logger.FromContext(ctx).Info("promo code rejected at checkout",
				"code", in.PromoCode, "reason", result.Reason)
		}
	}
	if discount > summary.Subtotal {
		discount = summary.Subtotal
	}

	paymentStatus := domain.PaymentStatusPending
	if in.PaymentMethod == domain.PaymentMethodCard && in.ProviderTxnRef != "" {
		paymentStatus = domain.PaymentStatusPaid
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:                  uuid.New(),
		CustomerID:          in.CustomerID,
		RestaurantID:        summary.RestaurantID,
		AddressID:           in.AddressID,
		Status:              domain.OrderStatusPending,
		PaymentStatus:       paymentStatus,
		PaymentMethod:       in.PaymentMethod,
		ProviderTxnRef:      in.ProviderTxnRef,
		Subtotal:            summary.Subtotal,
		TaxAmount:           tax,
		DeliveryFee:         deliveryFee,
		DiscountAmount:      discount,
		Total:               summary.Subtotal + tax + deliveryFee - discount,
		PromoCodeID:         promoCodeID,
		SpecialInstructions: in.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, line := range summary.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:         uuid.New(),
			OrderID:    order.ID,
			MenuItemID: line.MenuItemID,
			ItemName:   line.ItemName,
			Quantity:   line.Quantity,
			Note:       line.Note,
			Selection:  line.Selection.Canonical(),
			UnitPrice:  line.UnitPrice,
			LineTotal:  line.LineTotal,
		})
	}

	if err := s.persistWithRetry(ctx, order, summary.CartID, now); err != nil {
		return nil, err
	}

	s.events.OrderCreated(ctx, order)
	return order, nil
}

// persistWithRetry regenerates the order number and retries when the
// advisory unique index rejects a colliding number.
func (s *CheckoutService) persistWithRetry(ctx context.Context, order *domain.Order, cartID uuid.UUID, now time.Time) error {
	var lastErr error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = generateOrderNumber(now)
		err := s.orders.CreateWithCartClear(ctx, order, cartID)
		if err == nil {
			return nil
		}
		if !database.IsUniqueViolation(err) {
			return err
		}
		lastErr = err
		logger.FromContext(ctx).Warn("order number collision, regenerating",
			"order_number", order.OrderNumber, "attempt", attempt+1)
	}
	return fmt.Errorf("creating order after %d number collisions: %w", orderNumberAttempts, lastErr)
}

// generateOrderNumber builds ORD-YYYYMMDD-XXXXXX with a random hex suffix.
func generateOrderNumber(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}

// lockCheckout takes a short per-customer lock covering the whole read,
// price, persist sequence, so retried checkout requests cannot create
// two orders from one cart. Carts are one per customer, which makes the
// customer ID the cart's lock key.
func (s *CheckoutService) lockCheckout(ctx context.Context, customerID uuid.UUID) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}
	key := "checkout:lock:" + customerID.String()
	ok, err := s.redis.SetNX(ctx, key, "1", s.cfg.LockTTL).Result()
	if err != nil {
		// A lock-store outage degrades to unguarded checkout rather than
		// blocking all orders.
		logger.FromContext(ctx).Warn("checkout lock unavailable", "error", err)
		return func() {}, nil
	}
	if !ok {
		return nil, apperrors.Conflict("checkout already in progress for this cart")
	}
	return func() {
		if err := s.redis.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			s.logger.Warn("releasing checkout lock", "customer_id", customerID, "error", err)
		}
	}, nil
}

func (s *CheckoutService) defaultTax(subtotal domain.Money) domain.Money {
	return subtotal.BasisPointsOf(s.cfg.TaxRateBasisPoints)
}
