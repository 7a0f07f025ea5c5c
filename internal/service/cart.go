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

const maxLineQuantity = 99

// CartService manages carts and produces priced cart views.
type CartService struct {
	carts    repository.CartRepository
	catalog  repository.CatalogRepository
	resolver *PriceResolver
	logger   *slog.Logger
}

// NewCartService creates a cart service.
func NewCartService(carts repository.CartRepository, catalog repository.CatalogRepository, resolver *PriceResolver, l *slog.Logger) *CartService {
	return &CartService{carts: carts, catalog: catalog, resolver: resolver, logger: l}
}

// Get returns the customer's cart, creating an empty one if none exists.
func (s *CartService) Get(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.carts.GetByCustomer(ctx, customerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.carts.Create(ctx, customerID)
	}
	return cart, err
}

// AddItem adds a menu item with its selection and optional note. The
// selection is checked against the item's customization groups. A line
// with the same item, selection signature, and note merges quantities
// instead of duplicating.
func (s *CartService) AddItem(ctx context.Context, customerID, menuItemID uuid.UUID, quantity int, note string, sel domain.SelectionSet) (*domain.Cart, error) {
	if quantity < 1 || quantity > maxLineQuantity {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must be between 1 and %d", maxLineQuantity))
	}

	item, err := s.catalog.GetMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, apperrors.InvalidInput(fmt.Sprintf("menu item %q is not available", item.Name))
	}

	opts, err := s.catalog.GetMenuItemOptions(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	if err := validateSelection(sel, opts); err != nil {
		return nil, err
	}

	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := mergeLine(ctx, s.carts, cart, menuItemID, item.RestaurantID, quantity, note, sel); err != nil {
		return nil, err
	}
	return s.carts.GetByID(ctx, cart.ID)
}

// validateSelection checks a selection against the item's customization
// groups: at most one option per variation group and exactly one for
// required groups, add-on picks within each group's limit, and every
// option belonging to its group.
func validateSelection(sel domain.SelectionSet, opts *domain.MenuItemOptions) error {
	variations := make(map[uuid.UUID]domain.VariationGroup, len(opts.Variations))
	for _, g := range opts.Variations {
		variations[g.ID] = g
	}
	chosen := make(map[uuid.UUID]bool, len(sel.Variations))
	for _, c := range sel.Variations {
		g, ok := variations[c.VariationID]
		if !ok {
			return apperrors.InvalidInput(fmt.Sprintf("unknown variation %s for this item", c.VariationID))
		}
		if chosen[c.VariationID] {
			return apperrors.InvalidInput(fmt.Sprintf("variation %q chosen more than once", g.Name))
		}
		chosen[c.VariationID] = true
		if !containsID(g.OptionIDs, c.OptionID) {
			return apperrors.InvalidInput(fmt.Sprintf("option %s does not belong to variation %q", c.OptionID, g.Name))
		}
	}
	for _, g := range opts.Variations {
		if g.Required && !chosen[g.ID] {
			return apperrors.InvalidInput(fmt.Sprintf("variation %q requires a choice", g.Name))
		}
	}

	addOns := make(map[uuid.UUID]domain.AddOnGroup, len(opts.AddOns))
	for _, g := range opts.AddOns {
		addOns[g.ID] = g
	}
	seenGroup := make(map[uuid.UUID]bool, len(sel.AddOns))
	for _, c := range sel.AddOns {
		g, ok := addOns[c.AddOnID]
		if !ok {
			return apperrors.InvalidInput(fmt.Sprintf("unknown add-on %s for this item", c.AddOnID))
		}
		if seenGroup[c.AddOnID] {
			return apperrors.InvalidInput(fmt.Sprintf("add-on %q chosen more than once", g.Name))
		}
		seenGroup[c.AddOnID] = true
		if g.MaxSelections > 0 && len(c.OptionIDs) > g.MaxSelections {
			return apperrors.InvalidInput(
				fmt.Sprintf("add-on %q allows at most %d selections", g.Name, g.MaxSelections))
		}
		seenOption := make(map[uuid.UUID]bool, len(c.OptionIDs))
		for _, id := range c.OptionIDs {
			if !containsID(g.OptionIDs, id) {
				return apperrors.InvalidInput(fmt.Sprintf("option %s does not belong to add-on %q", id, g.Name))
			}
			if seenOption[id] {
				return apperrors.InvalidInput(fmt.Sprintf("option %s chosen twice in add-on %q", id, g.Name))
			}
			seenOption[id] = true
		}
	}
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// mergeLine merges quantity into an existing line with the same item,
// selection signature, and note, or inserts a new line. Checkout's
// reorder path uses the same primitive.
func mergeLine(ctx context.Context, carts repository.CartRepository, cart *domain.Cart, menuItemID, restaurantID uuid.UUID, quantity int, note string, sel domain.SelectionSet) error {
	sig := sel.Signature()
	if existing := cart.FindLine(menuItemID, sig, note); existing != nil && existing.RestaurantID == restaurantID {
		return carts.UpdateLineQuantity(ctx, existing.ID, existing.Quantity+quantity)
	}
	return carts.AddLine(ctx, &domain.CartLine{
		ID:           uuid.New(),
		CartID:       cart.ID,
		MenuItemID:   menuItemID,
		RestaurantID: restaurantID,
		Quantity:     quantity,
		Note:         note,
		Selection:    sel.Canonical(),
	})
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, customerID, lineID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity < 0 || quantity > maxLineQuantity {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must be between 0 and %d", maxLineQuantity))
	}

	cart, err := s.carts.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !cartOwnsLine(cart, lineID) {
		return nil, apperrors.Forbidden("cart line does not belong to caller")
	}

	if quantity == 0 {
		err = s.carts.RemoveLine(ctx, lineID)
	} else {
		err = s.carts.UpdateLineQuantity(ctx, lineID, quantity)
	}
	if err != nil {
		return nil, err
	}
	return s.carts.GetByID(ctx, cart.ID)
}

// RemoveItem deletes a line from the customer's cart.
func (s *CartService) RemoveItem(ctx context.Context, customerID, lineID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.carts.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !cartOwnsLine(cart, lineID) {
		return nil, apperrors.Forbidden("cart line does not belong to caller")
	}
	if err := s.carts.RemoveLine(ctx, lineID); err != nil {
		return nil, err
	}
	return s.carts.GetByID(ctx, cart.ID)
}

// Clear removes every line from the customer's cart.
func (s *CartService) Clear(ctx context.Context, customerID uuid.UUID) error {
	cart, err := s.carts.GetByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return s.carts.Clear(ctx, cart.ID)
}

func cartOwnsLine(cart *domain.Cart, lineID uuid.UUID) bool {
	for _, l := range cart.Lines {
		if l.ID == lineID {
			return true
		}
	}
	return false
}

// Aggregate loads and prices the customer's cart. It fails on an empty
// cart or one spanning multiple restaurants.
func (s *CartService) Aggregate(ctx context.Context, customerID uuid.UUID) (*domain.CartSummary, error) {
	cart, err := s.carts.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, cart)
}

func (s *CartService) aggregate(ctx context.Context, cart *domain.Cart) (*domain.CartSummary, error) {
	if len(cart.Lines) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}
	if !cart.IsSingleRestaurant() {
		return nil, apperrors.InvalidInput("cart contains items from multiple restaurants")
	}

	book, err := s.resolver.Load(ctx, cart.Lines)
	if err != nil {
		return nil, err
	}

	summary := &domain.CartSummary{
		CartID:       cart.ID,
		RestaurantID: cart.RestaurantID(),
		Lines:        make([]domain.PricedCartLine, 0, len(cart.Lines)),
	}
	for _, line := range cart.Lines {
		unit, err := book.UnitPrice(line.MenuItemID, line.Selection)
		if err != nil {
			return nil, err
		}
		item, err := book.Item(line.MenuItemID)
		if err != nil {
			return nil, err
		}
		lineTotal := unit * domain.Money(line.Quantity)
		summary.Lines = append(summary.Lines, domain.PricedCartLine{
			CartLine:  line,
			ItemName:  item.Name,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
		summary.Subtotal += lineTotal
	}
	return summary, nil
}
