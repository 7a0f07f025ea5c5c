package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/repository"
	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

// PromoResult is the outcome of evaluating a promo code.
type PromoResult struct {
	Valid       bool
	PromoCodeID uuid.UUID
	Percentage  int
	Reason      domain.PromoRejectionReason
}

// PromoService validates promo codes against a checkout.
type PromoService struct {
	promos repository.PromoRepository
	now    func() time.Time
}

// NewPromoService creates a promo service.
func NewPromoService(promos repository.PromoRepository) *PromoService {
	return &PromoService{promos: promos, now: time.Now}
}

// Apply evaluates code for an order at restaurantID. Checks short-circuit
// in order: existence, validity window start, window end, restaurant
// scope. A missing code never errors; it returns Valid:false with the
// rejection reason.
func (s *PromoService) Apply(ctx context.Context, code string, restaurantID uuid.UUID) (*PromoResult, error) {
	promo, err := s.promos.GetByCode(ctx, code)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &PromoResult{Reason: domain.PromoRejectionNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	if reason := promo.EvaluateAt(s.now().UTC(), restaurantID); reason != "" {
		return &PromoResult{Reason: reason}, nil
	}
	return &PromoResult{
		Valid:       true,
		PromoCodeID: promo.ID,
		Percentage:  promo.Percentage,
	}, nil
}

// RejectionMessage renders a reason for API consumers.
func RejectionMessage(reason domain.PromoRejectionReason) string {
	switch reason {
	case domain.PromoRejectionNotFound:
		return "invalid code"
	case domain.PromoRejectionNotYetValid:
		return "not yet valid"
	case domain.PromoRejectionExpired:
		return "expired"
	case domain.PromoRejectionWrongScope:
		return "not applicable to this restaurant"
	case domain.PromoRejectionInactive:
		return "no longer active"
	default:
		return ""
	}
}
