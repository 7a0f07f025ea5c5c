package payment

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

// StripeProvider refunds charges through the Stripe API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a provider with the given secret key.
func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) Name() string { return "stripe" }

// Refund issues a full or partial refund against the original charge.
func (p *StripeProvider) Refund(ctx context.Context, in *RefundInput) (*RefundResult, error) {
	params := &stripe.RefundParams{
		Params: stripe.Params{
			Context: ctx,
		},
		PaymentIntent: stripe.String(in.TransactionRef),
		Amount:        stripe.Int64(int64(in.Amount)),
	}
	if in.Reason != "" {
		params.Reason = stripe.String(string(stripe.RefundReasonRequestedByCustomer))
	}
	params.SetIdempotencyKey(in.IdempotencyKey)

	refund, err := p.api.Refunds.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, apperrors.RefundFailed(stripeErr.Msg)
		}
		return nil, fmt.Errorf("stripe refund: %w", err)
	}
	return &RefundResult{
		RefundRef: refund.ID,
		Status:    string(refund.Status),
	}, nil
}
