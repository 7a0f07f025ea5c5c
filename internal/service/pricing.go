package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/repository"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

// PriceResolver computes frozen unit prices for cart lines. Option price
// lookups are batched across all lines to avoid per-line queries.
type PriceResolver struct {
	catalog repository.CatalogRepository
}

// NewPriceResolver creates a price resolver.
func NewPriceResolver(catalog repository.CatalogRepository) *PriceResolver {
	return &PriceResolver{catalog: catalog}
}

// PriceBook holds batch-loaded prices for one pricing pass.
type PriceBook struct {
	items           map[uuid.UUID]*domain.MenuItem
	variationPrices map[uuid.UUID]domain.Money
	addOnPrices     map[uuid.UUID]domain.Money
}

// Load batch-fetches every item and option price the lines reference.
func (r *PriceResolver) Load(ctx context.Context, lines []domain.CartLine) (*PriceBook, error) {
	itemIDs := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	var variationIDs, addOnIDs []uuid.UUID
	for _, line := range lines {
		if !seen[line.MenuItemID] {
			seen[line.MenuItemID] = true
			itemIDs = append(itemIDs, line.MenuItemID)
		}
		variationIDs = append(variationIDs, line.Selection.VariationOptionIDs()...)
		addOnIDs = append(addOnIDs, line.Selection.AddOnOptionIDs()...)
	}

	items, err := r.catalog.GetMenuItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving menu items: %w", err)
	}
	variationPrices, err := r.catalog.GetVariationOptionPrices(ctx, variationIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving variation prices: %w", err)
	}
	addOnPrices, err := r.catalog.GetAddOnOptionPrices(ctx, addOnIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving add-on prices: %w", err)
	}

	return &PriceBook{
		items:           items,
		variationPrices: variationPrices,
		addOnPrices:     addOnPrices,
	}, nil
}

// Item returns the menu item a line references.
func (b *PriceBook) Item(id uuid.UUID) (*domain.MenuItem, error) {
	item, ok := b.items[id]
	if !ok {
		return nil, apperrors.NotFound("menu item", id.String())
	}
	return item, nil
}

// UnitPrice computes base price plus variation modifiers plus add-on
// prices. A selection referencing an unknown option is rejected rather
// than silently ignored, so a stale cart cannot underprice an order.
func (b *PriceBook) UnitPrice(menuItemID uuid.UUID, sel domain.SelectionSet) (domain.Money, error) {
	item, err := b.Item(menuItemID)
	if err != nil {
		return 0, err
	}
	price := item.BasePrice
	for _, id := range sel.VariationOptionIDs() {
		mod, ok := b.variationPrices[id]
		if !ok {
			return 0, apperrors.InvalidInput(fmt.Sprintf("unknown variation option %s", id))
		}
		price += mod
	}
	for _, id := range sel.AddOnOptionIDs() {
		p, ok := b.addOnPrices[id]
		if !ok {
			return 0, apperrors.InvalidInput(fmt.Sprintf("unknown add-on option %s", id))
		}
		price += p
	}
	return price, nil
}
