package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
)

// ConnectOptions controls the startup retry loop.
type ConnectOptions struct {
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{MaxRetries: 5, RetryDelay: 2 * time.Second}
}

// Connect opens the Postgres pool described by cfg and waits until it
// answers a ping, retrying while the database starts up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, opts ConnectOptions, log *logger.Logger) (*bun.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	for i := 0; i < opts.MaxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, opts.MaxRetries))
		if err = sqldb.PingContext(ctx); err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i == opts.MaxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			sqldb.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("connect to PostgreSQL after %d attempts: %w", opts.MaxRetries, err)
	}

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}
