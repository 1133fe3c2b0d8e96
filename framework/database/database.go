// Package database owns the SQL connection pool, request-scoped
// transactions and schema migrations.
package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/config"
)

// Infrastructure is the shared connection pool. Opening does not dial; the
// first query (or Ping) does.
type Infrastructure struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewInfrastructure opens a pool for cfg.DB.
func NewInfrastructure(cfg *config.Config, log *zap.Logger) (*Infrastructure, error) {
	driver := cfg.DB.Driver
	if driver == "" {
		driver = "postgres"
	}
	db, err := sqlx.Open(driver, cfg.DB.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", driver, err)
	}
	if cfg.DB.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	log = log.Named("database")
	log.Info("Database pool created",
		zap.String("driver", driver),
		zap.String("host", cfg.DB.Host),
		zap.String("database", cfg.DB.Database),
	)
	return &Infrastructure{db: db, log: log}, nil
}

// FromDB wraps an existing handle, e.g. one backed by sqlmock.
func FromDB(db *sqlx.DB, log *zap.Logger) *Infrastructure {
	return &Infrastructure{db: db, log: log.Named("database")}
}

// DB returns the pool.
func (i *Infrastructure) DB() *sqlx.DB { return i.db }

// Ping checks that the database is reachable.
func (i *Infrastructure) Ping(ctx context.Context) error {
	if err := i.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (i *Infrastructure) Close() error {
	i.log.Info("Database pool closed")
	return i.db.Close()
}
