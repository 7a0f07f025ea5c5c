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

// AddressRepository reads delivery addresses from Postgres.
type AddressRepository struct {
	db database.DBTX
}

// NewAddressRepository creates an address repository.
func NewAddressRepository(db database.DBTX) *AddressRepository {
	return &AddressRepository{db: db}
}

// GetByID loads one delivery address.
func (r *AddressRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryAddress, error) {
	var addr domain.DeliveryAddress
	err := r.db.QueryRow(ctx, `
		SELECT id, customer_id, label, line1, line2, city, postal_code, latitude, longitude, created_at
		FROM delivery_addresses WHERE id = $1`, id,
	).Scan(&addr.ID, &addr.CustomerID, &addr.Label, &addr.Line1, &addr.Line2,
		&addr.City, &addr.PostalCode, &addr.Latitude, &addr.Longitude, &addr.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("delivery address", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("loading delivery address: %w", err)
	}
	return &addr, nil
}
