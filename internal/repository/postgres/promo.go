package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/pkg/database"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

// PromoRepository reads promo codes from Postgres.
type PromoRepository struct {
	db database.DBTX
}

// NewPromoRepository creates a promo repository.
func NewPromoRepository(db database.DBTX) *PromoRepository {
	return &PromoRepository{db: db}
}

// GetByCode loads a promo code. Codes are stored and matched uppercase.
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var promo domain.PromoCode
	err := r.db.QueryRow(ctx, `
		SELECT id, code, percentage, valid_from, valid_until, restaurant_id, active, created_at
		FROM promo_codes WHERE code = $1`, code,
	).Scan(&promo.ID, &promo.Code, &promo.Percentage, &promo.ValidFrom,
		&promo.ValidUntil, &promo.RestaurantID, &promo.Active, &promo.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("promo code", code)
	}
	if err != nil {
		return nil, fmt.Errorf("loading promo code: %w", err)
	}
	return &promo, nil
}
