package payment

import (
	"context"

	"github.com/mealmesh/marketplace/internal/domain"
)

// RefundInput describes a refund request to the payment provider.
type RefundInput struct {
	// TransactionRef is the provider's charge or payment intent reference.
	TransactionRef string
	Amount         domain.Money
	// IdempotencyKey makes retried refunds safe. One cancellation uses
	// one key, so the provider is hit at most once per refund.
	IdempotencyKey string
	Reason         string
}

// RefundResult is the provider's acknowledgement.
type RefundResult struct {
	RefundRef string
	Status    string
}

// Provider executes payment refunds.
type Provider interface {
	Name() string
	Refund(ctx context.Context, in *RefundInput) (*RefundResult, error)
}
