package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/repository"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

// ReorderResult reports the target cart and how many order lines were
// merged into it.
type ReorderResult struct {
	CartID     uuid.UUID
	ItemsAdded int
}

// ReorderService rebuilds cart lines from a past order.
type ReorderService struct {
	orders repository.OrderRepository
	carts  repository.CartRepository
	logger *slog.Logger
}

// NewReorderService creates a reorder service.
func NewReorderService(orders repository.OrderRepository, carts repository.CartRepository, l *slog.Logger) *ReorderService {
	return &ReorderService{orders: orders, carts: carts, logger: l}
}

// Reorder copies the lines of a delivered or cancelled order into the
// customer's cart. A cart line with the same item and selection signature
// absorbs the quantity instead of duplicating, so repeating a reorder
// doubles quantities rather than doubling lines.
func (s *ReorderService) Reorder(ctx context.Context, orderID, customerID uuid.UUID) (*ReorderResult, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, apperrors.Forbidden("order does not belong to caller")
	}
	if order.Status != domain.OrderStatusDelivered && order.Status != domain.OrderStatusCancelled {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("only delivered or cancelled orders can be reordered, order is %s", order.Status))
	}

	cart, err := s.carts.GetByCustomer(ctx, customerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		cart, err = s.carts.Create(ctx, customerID)
	}
	if err != nil {
		return nil, err
	}

	added := 0
	for _, line := range order.Lines {
		err := mergeLine(ctx, s.carts, cart, line.MenuItemID, order.RestaurantID, line.Quantity, line.Note, line.Selection)
		if err != nil {
			return nil, err
		}
		added++
		// Reload so a second order line with the same signature merges
		// into the line just written.
		cart, err = s.carts.GetByID(ctx, cart.ID)
		if err != nil {
			return nil, err
		}
	}

	return &ReorderResult{CartID: cart.ID, ItemsAdded: added}, nil
}
