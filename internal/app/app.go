package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mealmesh/marketplace/internal/config"
	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/event"
	apphttp "github.com/mealmesh/marketplace/internal/handler/http"
	"github.com/mealmesh/marketplace/internal/payment"
	"github.com/mealmesh/marketplace/internal/repository/postgres"
	"github.com/mealmesh/marketplace/internal/service"
	"github.com/mealmesh/marketplace/migrations"
	"github.com/mealmesh/marketplace/pkg/database"
	"github.com/mealmesh/marketplace/pkg/health"
	"github.com/mealmesh/marketplace/pkg/kafka"
	"github.com/mealmesh/marketplace/pkg/logger"
	"github.com/mealmesh/marketplace/pkg/tracing"
)

// App owns the service's long-lived resources and its HTTP server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *kafka.Producer
	server         *http.Server
	shutdownTracer func(context.Context) error
}

// New connects every dependency and builds the wired application.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	l := logger.New("marketplace", cfg.LogLevel)

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, cfg.Postgres, l)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, pool, migrations.FS, l); err != nil {
		pool.Close()
		return nil, err
	}
	database.RegisterPoolMetrics(pool, "marketplace")

	rdb, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, err
	}

	producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers))
	events := event.NewProducer(producer)

	var provider payment.Provider
	switch cfg.PaymentProvider {
	case "stripe":
		provider = payment.NewStripeProvider(cfg.StripeSecretKey)
	default:
		provider = payment.NewMockProvider()
	}
	provider = payment.NewBreakerProvider(provider, l)

	catalogRepo := postgres.NewCatalogRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	promoRepo := postgres.NewPromoRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	resolver := service.NewPriceResolver(catalogRepo)
	cartSvc := service.NewCartService(cartRepo, catalogRepo, resolver, l)
	promoSvc := service.NewPromoService(promoRepo)
	checkoutSvc := service.NewCheckoutService(cartSvc, promoSvc, orderRepo, addressRepo, events, rdb,
		service.CheckoutConfig{
			TaxRateBasisPoints: cfg.TaxRateBasisPoints,
			DeliveryFee:        domain.Money(cfg.DeliveryFeeCents),
			LockTTL:            cfg.CheckoutLockTTL,
		}, l)
	orderSvc := service.NewOrderService(orderRepo, events, l)
	cancelSvc := service.NewCancellationService(orderRepo, provider, events, l)
	reorderSvc := service.NewReorderService(orderRepo, cartRepo, l)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", producer.Ping)

	router := apphttp.NewRouter(l, healthHandler,
		apphttp.NewCartHandler(cartSvc),
		apphttp.NewCheckoutHandler(checkoutSvc),
		apphttp.NewOrderHandler(orderSvc, cancelSvc, reorderSvc),
	)

	return &App{
		cfg:      cfg,
		logger:   l,
		pool:     pool,
		redis:    rdb,
		producer: producer,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTracer: shutdownTracer,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down in dependency
// order: server, producer, redis, postgres, tracer.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close", "error", err)
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close", "error", err)
	}
	a.pool.Close()
	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown", "error", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}
