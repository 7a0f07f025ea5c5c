package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/pkg/database"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

func TestGetByCustomerLoadsLines(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)
	customerID := uuid.New()
	cartID := uuid.New()
	now := time.Now().UTC()

	selection, _ := json.Marshal(domain.SelectionSet{})

	mock.ExpectQuery("SELECT (.+) FROM carts WHERE customer_id").
		WithArgs(customerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "customer_id", "created_at", "updated_at"}).
			AddRow(cartID, customerID, now, now))
	mock.ExpectQuery("SELECT (.+) FROM cart_lines WHERE cart_id").
		WithArgs(cartID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "cart_id", "menu_item_id", "restaurant_id", "quantity", "note", "selection", "created_at",
		}).AddRow(uuid.New(), cartID, uuid.New(), uuid.New(), 2, "no onions", selection, now))

	cart, err := repo.GetByCustomer(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, cartID, cart.ID)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, "no onions", cart.Lines[0].Note)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByCustomerNotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)
	customerID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM carts WHERE customer_id").
		WithArgs(customerID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err = repo.GetByCustomer(context.Background(), customerID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddLineStoresCanonicalSelection(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)
	line := &domain.CartLine{
		ID:           uuid.New(),
		CartID:       uuid.New(),
		MenuItemID:   uuid.New(),
		RestaurantID: uuid.New(),
		Quantity:     1,
	}

	mock.ExpectExec("INSERT INTO cart_lines").
		WithArgs(anyArgs(7)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.AddLine(context.Background(), line))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLineQuantityNotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)
	lineID := uuid.New()

	mock.ExpectExec("UPDATE cart_lines").
		WithArgs(3, lineID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateLineQuantity(context.Background(), lineID, 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
