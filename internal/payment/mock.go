package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockProvider acknowledges every refund without calling any external
// service. It backs local development and the cash-only deployments.
type MockProvider struct {
	mu      sync.Mutex
	refunds []RefundInput
	// FailWith, when set, is returned for every refund.
	FailWith error
}

// NewMockProvider creates an always-succeeding provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Refund(ctx context.Context, in *RefundInput) (*RefundResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return nil, p.FailWith
	}
	p.refunds = append(p.refunds, *in)
	return &RefundResult{
		RefundRef: "mock_" + uuid.NewString(),
		Status:    "succeeded",
	}, nil
}

// Refunds returns the refunds recorded so far.
func (p *MockProvider) Refunds() []RefundInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RefundInput, len(p.refunds))
	copy(out, p.refunds)
	return out
}
