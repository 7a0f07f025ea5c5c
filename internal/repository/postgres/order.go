package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/repository"
	"github.com/mealmesh/marketplace/pkg/database"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

// OrderRepository persists orders in Postgres.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates an order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateWithCartClear inserts the order, its lines, the initial history
// row, and clears the source cart atomically.
func (r *OrderRepository) CreateWithCartClear(ctx context.Context, order *domain.Order, cartID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, customer_id, restaurant_id, address_id,
			status, payment_status, payment_method, provider_txn_ref,
			subtotal_cents, tax_cents, delivery_fee_cents, discount_cents, total_cents,
			promo_code_id, special_instructions, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)`,
		order.ID, order.OrderNumber, order.CustomerID, order.RestaurantID, order.AddressID,
		order.Status, order.PaymentStatus, order.PaymentMethod, order.ProviderTxnRef,
		order.Subtotal, order.TaxAmount, order.DeliveryFee, order.DiscountAmount, order.Total,
		order.PromoCodeID, order.SpecialInstructions, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for _, line := range order.Lines {
		selection, err := json.Marshal(line.Selection.Canonical())
		if err != nil {
			return fmt.Errorf("encoding order line selection: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (
				id, order_id, menu_item_id, item_name, quantity, note, selection,
				unit_price_cents, line_total_cents
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			line.ID, order.ID, line.MenuItemID, line.ItemName, line.Quantity,
			line.Note, selection, line.UnitPrice, line.LineTotal)
		if err != nil {
			return fmt.Errorf("inserting order line: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, from_status, to_status, actor)
		VALUES ($1, $2, '', $3, 'customer')`,
		uuid.New(), order.ID, order.Status)
	if err != nil {
		return fmt.Errorf("inserting order history: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order tx: %w", err)
	}
	return nil
}

const orderColumns = `
	id, order_number, customer_id, restaurant_id, address_id,
	status, payment_status, payment_method, provider_txn_ref,
	subtotal_cents, tax_cents, delivery_fee_cents, discount_cents, total_cents,
	promo_code_id, special_instructions, cancel_reason, actual_delivery_time, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.RestaurantID, &o.AddressID,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.ProviderTxnRef,
		&o.Subtotal, &o.TaxAmount, &o.DeliveryFee, &o.DiscountAmount, &o.Total,
		&o.PromoCodeID, &o.SpecialInstructions, &o.CancelReason, &o.ActualDeliveryTime, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID loads an order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("order", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("loading order: %w", err)
	}

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

func (r *OrderRepository) loadLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, item_name, quantity, note, selection,
		       unit_price_cents, line_total_cents
		FROM order_lines WHERE order_id = $1 ORDER BY item_name`, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		var selection []byte
		err := rows.Scan(&line.ID, &line.OrderID, &line.MenuItemID, &line.ItemName,
			&line.Quantity, &line.Note, &selection, &line.UnitPrice, &line.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("scanning order line: %w", err)
		}
		if err := json.Unmarshal(selection, &line.Selection); err != nil {
			return nil, fmt.Errorf("decoding order line selection: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order lines: %w", err)
	}
	return lines, nil
}

// List returns a page of orders matching the filter, newest first, without
// lines, plus the total match count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int64, error) {
	where := " WHERE 1=1"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.CustomerID != nil {
		where += " AND customer_id = " + arg(*filter.CustomerID)
	}
	if filter.RestaurantID != nil {
		where += " AND restaurant_id = " + arg(*filter.RestaurantID)
	}
	if filter.Status != "" {
		where += " AND status = " + arg(filter.Status)
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		" ORDER BY created_at DESC LIMIT " + arg(size) + " OFFSET " + arg((page-1)*size)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus moves id from fromStatus to toStatus with a history row.
// The conditional update detects concurrent transitions.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus, actor, reason string, deliveredAt *time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning status tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, actual_delivery_time = COALESCE($2, actual_delivery_time), updated_at = now()
		WHERE id = $3 AND status = $4`,
		toStatus, deliveredAt, id, fromStatus)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Conflict("order status changed concurrently")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, from_status, to_status, actor, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), id, fromStatus, toStatus, actor, reason)
	if err != nil {
		return fmt.Errorf("inserting status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing status tx: %w", err)
	}
	return nil
}

// UpdatePaymentStatus sets the payment status.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = now() WHERE id = $2`,
		paymentStatus, id)
	if err != nil {
		return fmt.Errorf("updating payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", id.String())
	}
	return nil
}

// MarkCancelled sets the cancelled status, reason, and payment status
// atomically, guarded by the expected current status.
func (r *OrderRepository) MarkCancelled(ctx context.Context, id uuid.UUID, fromStatus, actor, reason, paymentStatus string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning cancel tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, cancel_reason = $2, payment_status = $3, updated_at = now()
		WHERE id = $4 AND status = $5`,
		domain.OrderStatusCancelled, reason, paymentStatus, id, fromStatus)
	if err != nil {
		return fmt.Errorf("cancelling order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Conflict("order status changed concurrently")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, from_status, to_status, actor, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), id, fromStatus, domain.OrderStatusCancelled, actor, reason)
	if err != nil {
		return fmt.Errorf("inserting cancel history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing cancel tx: %w", err)
	}
	return nil
}

// GetStatusHistory returns the audit trail oldest first.
func (r *OrderRepository) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]domain.StatusHistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, from_status, to_status, actor, reason, created_at
		FROM order_status_history WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading status history: %w", err)
	}
	defer rows.Close()

	var entries []domain.StatusHistoryEntry
	for rows.Next() {
		var e domain.StatusHistoryEntry
		err := rows.Scan(&e.ID, &e.OrderID, &e.FromStatus, &e.ToStatus, &e.Actor, &e.Reason, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status history: %w", err)
	}
	return entries, nil
}
