package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Limits carries the pool sizing knobs from configuration. Zero values keep
// the pgx defaults.
type Limits struct {
	MaxConns int32
	MinConns int32
}

// Connect opens a pgx pool against the practice database and pings it once
// so a bad DATABASE_URL fails at startup instead of on the first request.
func Connect(ctx context.Context, url string, limits Limits) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if limits.MaxConns > 0 {
		cfg.MaxConns = limits.MaxConns
	}
	if limits.MinConns > 0 {
		cfg.MinConns = limits.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
