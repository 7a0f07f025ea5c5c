package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/pkg/database"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

// CatalogRepository reads menu data from Postgres.
type CatalogRepository struct {
	db database.DBTX
}

// NewCatalogRepository creates a catalog repository.
func NewCatalogRepository(db database.DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const menuItemColumns = `id, restaurant_id, name, description, base_price_cents, available, created_at, updated_at`

func scanMenuItem(row pgx.Row) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := row.Scan(
		&item.ID, &item.RestaurantID, &item.Name, &item.Description,
		&item.BasePrice, &item.Available, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetMenuItem loads one menu item.
func (r *CatalogRepository) GetMenuItem(ctx context.Context, id uuid.UUID) (*domain.MenuItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	item, err := scanMenuItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("menu item", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("loading menu item: %w", err)
	}
	return item, nil
}

// GetMenuItems batch-loads menu items by ID.
func (r *CatalogRepository) GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.MenuItem, error) {
	items := make(map[uuid.UUID]*domain.MenuItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("loading menu items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning menu item: %w", err)
		}
		items[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menu items: %w", err)
	}
	return items, nil
}

// GetMenuItemOptions loads the item's variation and add-on groups with
// the option IDs each offers.
func (r *CatalogRepository) GetMenuItemOptions(ctx context.Context, menuItemID uuid.UUID) (*domain.MenuItemOptions, error) {
	variations, err := r.itemVariationGroups(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	addOns, err := r.itemAddOnGroups(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	return &domain.MenuItemOptions{Variations: variations, AddOns: addOns}, nil
}

func (r *CatalogRepository) itemVariationGroups(ctx context.Context, menuItemID uuid.UUID) ([]domain.VariationGroup, error) {
	rows, err := r.db.Query(ctx, `
		SELECT v.id, v.menu_item_id, v.name, v.required, o.id
		FROM product_variations v
		LEFT JOIN variation_options o ON o.variation_id = v.id
		WHERE v.menu_item_id = $1
		ORDER BY v.id`, menuItemID)
	if err != nil {
		return nil, fmt.Errorf("loading item variations: %w", err)
	}
	defer rows.Close()

	var groups []domain.VariationGroup
	for rows.Next() {
		var v domain.ProductVariation
		var optionID *uuid.UUID
		if err := rows.Scan(&v.ID, &v.MenuItemID, &v.Name, &v.Required, &optionID); err != nil {
			return nil, fmt.Errorf("scanning item variation: %w", err)
		}
		if len(groups) == 0 || groups[len(groups)-1].ID != v.ID {
			groups = append(groups, domain.VariationGroup{ProductVariation: v})
		}
		if optionID != nil {
			last := &groups[len(groups)-1]
			last.OptionIDs = append(last.OptionIDs, *optionID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item variations: %w", err)
	}
	return groups, nil
}

func (r *CatalogRepository) itemAddOnGroups(ctx context.Context, menuItemID uuid.UUID) ([]domain.AddOnGroup, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.menu_item_id, a.name, a.max_selections, o.id
		FROM product_add_ons a
		LEFT JOIN add_on_options o ON o.add_on_id = a.id
		WHERE a.menu_item_id = $1
		ORDER BY a.id`, menuItemID)
	if err != nil {
		return nil, fmt.Errorf("loading item add-ons: %w", err)
	}
	defer rows.Close()

	var groups []domain.AddOnGroup
	for rows.Next() {
		var a domain.ProductAddOn
		var optionID *uuid.UUID
		if err := rows.Scan(&a.ID, &a.MenuItemID, &a.Name, &a.MaxSelections, &optionID); err != nil {
			return nil, fmt.Errorf("scanning item add-on: %w", err)
		}
		if len(groups) == 0 || groups[len(groups)-1].ID != a.ID {
			groups = append(groups, domain.AddOnGroup{ProductAddOn: a})
		}
		if optionID != nil {
			last := &groups[len(groups)-1]
			last.OptionIDs = append(last.OptionIDs, *optionID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item add-ons: %w", err)
	}
	return groups, nil
}

// GetVariationOptionPrices batch-loads price modifiers for variation options.
func (r *CatalogRepository) GetVariationOptionPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Money, error) {
	return r.optionPrices(ctx,
		`SELECT id, price_modifier_cents FROM variation_options WHERE id = ANY($1)`, ids)
}

// GetAddOnOptionPrices batch-loads prices for add-on options.
func (r *CatalogRepository) GetAddOnOptionPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Money, error) {
	return r.optionPrices(ctx,
		`SELECT id, price_cents FROM add_on_options WHERE id = ANY($1)`, ids)
}

func (r *CatalogRepository) optionPrices(ctx context.Context, query string, ids []uuid.UUID) (map[uuid.UUID]domain.Money, error) {
	prices := make(map[uuid.UUID]domain.Money, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("loading option prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var price domain.Money
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("scanning option price: %w", err)
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating option prices: %w", err)
	}
	return prices, nil
}
