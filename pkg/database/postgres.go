package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds connection settings for the marketplace database.
type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"marketplace"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"marketplace"`
	Database string `env:"POSTGRES_DB" envDefault:"marketplace"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
}

// DSN returns the connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

const (
	connectAttempts = 3
	connectBaseWait = 500 * time.Millisecond
)

func retryBackoff(attempt int) time.Duration {
	base := connectBaseWait * time.Duration(1<<attempt)
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base - base/4 + jitter
}

// NewPostgresPool connects to Postgres with bounded retries.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	return NewPostgresPoolWithLogger(ctx, cfg, slog.Default())
}

// NewPostgresPoolWithLogger is NewPostgresPool with an explicit logger for
// retry attempts.
func NewPostgresPoolWithLogger(ctx context.Context, cfg PostgresConfig, l *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	var lastErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			lastErr = err
		} else if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = err
		} else {
			return pool, nil
		}

		if attempt < connectAttempts-1 {
			wait := retryBackoff(attempt)
			l.Warn("postgres connection failed, retrying",
				"attempt", attempt+1,
				"wait", wait.String(),
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return nil, fmt.Errorf("connecting to postgres after %d attempts: %w", connectAttempts, lastErr)
}
