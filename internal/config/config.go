// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation errors wrap ErrInvalidConfig; load errors wrap ErrLoadConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Board backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the Postgres DSN holding authors, posts and trending_topics.
	// Empty runs the service on an in-memory source.
	DatabaseURL          string `koanf:"database_url"`
	DBMaxOpenConns       int    `koanf:"db_max_open_conns"`
	DBMaxIdleConns       int    `koanf:"db_max_idle_conns"`
	DBConnMaxLifetimeSec int    `koanf:"db_conn_max_lifetime_sec"`

	// NotifyChannel is the LISTEN channel for change notifications.
	// Empty disables the listener and leaves polling only.
	NotifyChannel string `koanf:"notify_channel"`

	// BoardBackend selects where published rankings live: memory or redis.
	BoardBackend  string `koanf:"board_backend"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisKey      string `koanf:"redis_key"`
	// BoardTTLSec expires the shared board when no pass refreshes it. 0 keeps it forever.
	BoardTTLSec int `koanf:"board_ttl_sec"`

	// RefreshIntervalMS is the poll period between ranking passes.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`

	// RefreshTimeoutMS bounds a single load, rank and publish pass.
	RefreshTimeoutMS int `koanf:"refresh_timeout_ms"`

	// QueueSize bounds pending refresh triggers.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Ranking weights applied to the normalized dimensions.
	VelocityWeight float64 `koanf:"velocity_weight"`
	PostsWeight    float64 `koanf:"posts_weight"`
	BonusWeight    float64 `koanf:"bonus_weight"`

	// EarlySignalerCount is how many of a topic's earliest posts feed the bonus.
	EarlySignalerCount int `koanf:"early_signaler_count"`

	// CredibleKeywords are the bio terms that earn the credibility bonus.
	CredibleKeywords []string `koanf:"credible_keywords"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DBMaxOpenConns:       10,
		DBMaxIdleConns:       5,
		DBConnMaxLifetimeSec: 300,
		NotifyChannel:        "trend_changes",
		BoardBackend:         BackendMemory,
		RedisAddr:            "localhost:6379",
		RedisKey:             "trendrank:board",
		BoardTTLSec:          0,
		RefreshIntervalMS:    1000,
		RefreshTimeoutMS:     10_000,
		QueueSize:            1,
		WorkerCount:          runtime.NumCPU(),
		MaxLeaderboardLimit:  100,
		VelocityWeight:       0.5,
		PostsWeight:          0.2,
		BonusWeight:          0.3,
		EarlySignalerCount:   5,
		CredibleKeywords: []string{
			"analyst", "journalist", "trader", "official", "economist", "expert", "senior", "verified",
		},
	}
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.BoardBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown board_backend %q", ErrInvalidConfig, c.BoardBackend)
	}
	if c.VelocityWeight < 0 || c.PostsWeight < 0 || c.BonusWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidConfig)
	}
	if c.RefreshIntervalMS <= 0 {
		return fmt.Errorf("%w: refresh_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 || c.WorkerCount <= 0 {
		return fmt.Errorf("%w: queue_size and worker_count must be positive", ErrInvalidConfig)
	}
	return nil
}

// RefreshInterval returns the poll period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// RefreshTimeout returns the per-pass deadline.
func (c *Config) RefreshTimeout() time.Duration {
	return time.Duration(c.RefreshTimeoutMS) * time.Millisecond
}

// BoardTTL returns the shared board expiry.
func (c *Config) BoardTTL() time.Duration {
	return time.Duration(c.BoardTTLSec) * time.Second
}

// ConnMaxLifetime returns the pooled connection lifetime.
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeSec) * time.Second
}
