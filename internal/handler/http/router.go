package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mealmesh/marketplace/pkg/health"
	"github.com/mealmesh/marketplace/pkg/middleware"
)

const serviceName = "marketplace"

// NewRouter wires middleware, operational endpoints, and the API surface.
func NewRouter(
	l *slog.Logger,
	healthHandler *health.Handler,
	cart *CartHandler,
	checkout *CheckoutHandler,
	order *OrderHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(l))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(l))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(l))

	r.Get("/health/live", healthHandler.LivenessHandler)
	r.Get("/health/ready", healthHandler.ReadinessHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.Get)
			r.Post("/items", cart.AddItem)
			r.Patch("/items/{lineID}", cart.UpdateQuantity)
			r.Delete("/items/{lineID}", cart.RemoveItem)
			r.Delete("/", cart.Clear)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/summary", checkout.Summary)
			r.Post("/", checkout.CreateOrder)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", order.List)
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", order.Get)
				r.Get("/history", order.History)
				r.Post("/cancel", order.Cancel)
				r.Post("/reorder", order.Reorder)
				r.Post("/accept", order.Accept)
				r.Post("/decline", order.Decline)
				r.Patch("/status", order.UpdateStatus)
				r.Patch("/payment-status", order.UpdatePaymentStatus)
			})
		})
	})

	return r
}
