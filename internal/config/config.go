package config

import (
	"fmt"
	"time"

	"github.com/mealmesh/marketplace/pkg/config"
	"github.com/mealmesh/marketplace/pkg/database"
	"github.com/mealmesh/marketplace/pkg/tracing"
	"github.com/mealmesh/marketplace/pkg/validator"
)

// Config holds every runtime setting for the marketplace service.
type Config struct {
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Postgres database.PostgresConfig
	Redis    database.RedisConfig
	Tracing  tracing.Config

	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// PaymentProvider selects the refund backend: mock or stripe.
	PaymentProvider string `env:"PAYMENT_PROVIDER" envDefault:"mock" validate:"oneof=mock stripe"`
	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`

	// TaxRateBasisPoints is the default tax applied when a checkout
	// supplies no explicit amount; 600 means 6%.
	TaxRateBasisPoints int   `env:"TAX_RATE_BPS" envDefault:"600" validate:"gte=0,lte=3000"`
	DeliveryFeeCents   int64 `env:"DELIVERY_FEE_CENTS" envDefault:"250" validate:"gte=0"`

	CheckoutLockTTL time.Duration `env:"CHECKOUT_LOCK_TTL" envDefault:"10s"`
}

// Load reads and validates the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if err := validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.PaymentProvider == "stripe" && cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
	}
	return &cfg, nil
}
