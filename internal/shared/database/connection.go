package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"galaxy-forge/internal/shared/config"
	"galaxy-forge/internal/shared/utils"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

type Tx struct {
	*sql.Tx
}

// Executor is satisfied by both *DB and *Tx, so repositories can run the
// same query inside or outside a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) BeginTxContext(ctx context.Context) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx}, nil
}

// WithTx runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise. fn's error is returned unchanged.
func (db *DB) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := db.BeginTxContext(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.With("component", "database", "operation", "rollback").
				Error("Failed to roll back transaction", "error", rbErr, "cause", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Connect opens the PostgreSQL pool and waits for it to answer, retrying
// with backoff while the server starts. It returns nil, nil when the
// database is disabled so callers can fall back to the in-memory store.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	logger := slog.With("component", "database", "operation", "connect",
		"host", cfg.Host, "database", cfg.Name)

	if !cfg.Enabled {
		logger.Info("Database disabled, using in-memory store")
		return nil, nil
	}

	logger.Info("Connecting to database",
		"port", cfg.Port,
		"user", cfg.User,
		"sslmode", cfg.SSLMode,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
		"attempts", cfg.ConnectAttempts,
	)

	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Error("Failed to open database connection", "error", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	policy := utils.RetryPolicy{Attempts: cfg.ConnectAttempts, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second}
	err = utils.Retry(ctx, policy, sqlDB.PingContext, func(err error, wait time.Duration) {
		logger.Warn("Database not ready, retrying", "error", err, "wait", wait)
	})
	if err != nil {
		logger.Error("Failed to ping database", "error", err)
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close database after ping failure", "close_error", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")
	return &DB{sqlDB}, nil
}

// Ping reports whether the pool is reachable. A nil DB is never reachable.
func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database not configured")
	}
	return db.DB.PingContext(ctx)
}

func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}
