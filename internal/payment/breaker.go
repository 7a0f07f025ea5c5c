package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"

	apperrors "github.com/mealmesh/marketplace/pkg/errors"
)

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "payment_breaker_state",
	Help: "Circuit breaker state per provider: 0 closed, 1 half-open, 2 open.",
}, []string{"provider"})

// BreakerProvider wraps a Provider with a circuit breaker so a failing
// payment backend does not stall cancellations.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[*RefundResult]
}

// NewBreakerProvider wraps inner. The breaker opens after five
// consecutive failures and probes again after 30 seconds.
func NewBreakerProvider(inner Provider, l *slog.Logger) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:    inner.Name(),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(stateValue(to))
			l.Warn("payment breaker state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			// A provider-declined refund is a definitive answer, not a
			// backend outage.
			return err == nil || errors.Is(err, apperrors.ErrRefundFailed)
		},
	}
	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*RefundResult](settings),
	}
}

func (p *BreakerProvider) Name() string { return p.inner.Name() }

func (p *BreakerProvider) Refund(ctx context.Context, in *RefundInput) (*RefundResult, error) {
	result, err := p.breaker.Execute(func() (*RefundResult, error) {
		return p.inner.Refund(ctx, in)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.ServiceUnavailable("payment provider unavailable")
	}
	return result, err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
