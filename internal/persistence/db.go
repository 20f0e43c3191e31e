// Package persistence implements the tiered write-back pipeline of
// spec.md §4.10: RAM (dirty flag) -> external cache (tier 1, Redis) ->
// durable store (tier 2, Postgres), plus the direct transactional path
// for inventory/gold mutations. Grounded on the teacher's
// internal/persist package (db.go's pgxpool setup, migrations.go's goose
// embed pattern, wal.go's single-transaction batch write).
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/config"
)

// DB wraps the durable-store connection pool.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

// NewDB connects to Postgres per cfg, verifying the connection with a
// bounded ping before returning.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{Pool: pool, log: log}, nil
}

// Close releases the pool.
func (db *DB) Close() { db.Pool.Close() }
