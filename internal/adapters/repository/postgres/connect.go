// Package postgres loads ranking snapshots from PostgreSQL, listens for change
// notifications and writes seeded rows.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	// defaultConnectTimeout is the maximum time to wait for the initial ping.
	defaultConnectTimeout = 5 * time.Second
	defaultMaxOpenConns   = 10
	defaultMaxIdleConns   = 5
	defaultConnLifetime   = 5 * time.Minute
)

// PoolOption tunes the connection pool opened by Open.
type PoolOption func(*poolConfig)

type poolConfig struct {
	maxOpen      int
	maxIdle      int
	connLifetime time.Duration
}

// WithMaxOpenConns caps open connections.
func WithMaxOpenConns(n int) PoolOption {
	return func(c *poolConfig) {
		if n > 0 {
			c.maxOpen = n
		}
	}
}

// WithMaxIdleConns caps idle connections.
func WithMaxIdleConns(n int) PoolOption {
	return func(c *poolConfig) {
		if n >= 0 {
			c.maxIdle = n
		}
	}
}

// WithConnMaxLifetime sets how long a connection may be reused.
func WithConnMaxLifetime(d time.Duration) PoolOption {
	return func(c *poolConfig) {
		if d > 0 {
			c.connLifetime = d
		}
	}
}

// Open connects to dsn and verifies the connection with a ping.
func Open(ctx context.Context, dsn string, opts ...PoolOption) (*sql.DB, error) {
	cfg := poolConfig{
		maxOpen:      defaultMaxOpenConns,
		maxIdle:      defaultMaxIdleConns,
		connLifetime: defaultConnLifetime,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpen)
	db.SetMaxIdleConns(cfg.maxIdle)
	db.SetConnMaxLifetime(cfg.connLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return db, nil
}
