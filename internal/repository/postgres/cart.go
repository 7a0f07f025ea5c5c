package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/pkg/database"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

// CartRepository persists carts in Postgres. Line selections are stored
// as JSONB in canonical form.
type CartRepository struct {
	db database.DBTX
}

// NewCartRepository creates a cart repository.
func NewCartRepository(db database.DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// GetByCustomer loads the customer's cart with its lines.
func (r *CartRepository) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, customer_id, created_at, updated_at FROM carts WHERE customer_id = $1`,
		customerID)
	return r.loadCart(ctx, row, customerID.String())
}

// GetByID loads a cart by its ID with its lines.
func (r *CartRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, customer_id, created_at, updated_at FROM carts WHERE id = $1`, id)
	return r.loadCart(ctx, row, id.String())
}

func (r *CartRepository) loadCart(ctx context.Context, row pgx.Row, key string) (*domain.Cart, error) {
	var cart domain.Cart
	err := row.Scan(&cart.ID, &cart.CustomerID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("cart", key)
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}

	lines, err := r.loadLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines
	return &cart, nil
}

func (r *CartRepository) loadLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cart_id, menu_item_id, restaurant_id, quantity, note, selection, created_at
		FROM cart_lines WHERE cart_id = $1 ORDER BY created_at`, cartID)
	if err != nil {
		return nil, fmt.Errorf("loading cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		var selection []byte
		err := rows.Scan(&line.ID, &line.CartID, &line.MenuItemID, &line.RestaurantID,
			&line.Quantity, &line.Note, &selection, &line.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning cart line: %w", err)
		}
		if err := json.Unmarshal(selection, &line.Selection); err != nil {
			return nil, fmt.Errorf("decoding cart line selection: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cart lines: %w", err)
	}
	return lines, nil
}

// Create inserts an empty cart for the customer.
func (r *CartRepository) Create(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.QueryRow(ctx, `
		INSERT INTO carts (id, customer_id)
		VALUES ($1, $2)
		RETURNING id, customer_id, created_at, updated_at`,
		uuid.New(), customerID,
	).Scan(&cart.ID, &cart.CustomerID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating cart: %w", err)
	}
	cart.Lines = []domain.CartLine{}
	return &cart, nil
}

// AddLine inserts a new cart line with its canonical selection.
func (r *CartRepository) AddLine(ctx context.Context, line *domain.CartLine) error {
	selection, err := json.Marshal(line.Selection.Canonical())
	if err != nil {
		return fmt.Errorf("encoding selection: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO cart_lines (id, cart_id, menu_item_id, restaurant_id, quantity, note, selection)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		line.ID, line.CartID, line.MenuItemID, line.RestaurantID, line.Quantity, line.Note, selection)
	if err != nil {
		return fmt.Errorf("inserting cart line: %w", err)
	}
	return nil
}

// UpdateLineQuantity sets the quantity of an existing line.
func (r *CartRepository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cart_lines SET quantity = $1 WHERE id = $2`, quantity, lineID)
	if err != nil {
		return fmt.Errorf("updating cart line quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("cart line", lineID.String())
	}
	return nil
}

// RemoveLine deletes a line.
func (r *CartRepository) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("removing cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("cart line", lineID.String())
	}
	return nil
}

// Clear removes every line from the cart.
func (r *CartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}
