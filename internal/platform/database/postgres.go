package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/srgjo27/eventpass/internal/platform/config"
)

//go:embed schema.sql
var schema string

const (
	maxRetries = 10
	retryDelay = 2 * time.Second
)

func DSN(cfg config.Database) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)
}

// NewPostgresDB connects with retries so the service survives starting
// before the database container is ready.
func NewPostgresDB(ctx context.Context, cfg config.Database, log *slog.Logger) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	for i := 1; i <= maxRetries; i++ {
		log.Info("connecting to database", "attempt", i, "max_attempts", maxRetries, "host", cfg.Host)
		db, err = sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxOpenConns)
			db.SetConnMaxLifetime(5 * time.Minute)
			log.Info("database connected")
			return db, nil
		}

		log.Warn("database not ready", "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("connect database: %w", err)
}

// Migrate applies the idempotent schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
