package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/trendrank/internal/adapters/http/api"
	"github.com/okian/trendrank/internal/adapters/http/site"
	"github.com/okian/trendrank/internal/adapters/http/swagger"
	"github.com/okian/trendrank/internal/adapters/repository"
	"github.com/okian/trendrank/internal/adapters/repository/postgres"
	"github.com/okian/trendrank/internal/adapters/repository/redis"
	app "github.com/okian/trendrank/internal/app"
	"github.com/okian/trendrank/internal/config"
	"github.com/okian/trendrank/internal/domain/ranking"
	"github.com/okian/trendrank/internal/domain/scoring"
	"github.com/okian/trendrank/internal/seed"
	"github.com/okian/trendrank/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// demoBatches is how many generated batches fill the in-memory source when no
// database is configured.
const demoBatches = 20

func main() {
	// Go runtime metrics are sampled by the service's own gauges.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger isn't configured yet.
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		log.Error(ctx, "trendrank stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the service and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	svc := newService(cfg, deps)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, deps.checkers...),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// deps are the storage adapters selected by configuration.
type deps struct {
	source   repository.Source
	board    repository.Board
	listener app.Listener
	checkers []api.Checker
	closers  []io.Closer
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			logger.Get().Warn(context.Background(), "close failed", logger.Error(err))
		}
	}
}

// buildDeps opens the configured source and board. Without a database the
// source is an in-memory snapshot filled with generated rows.
func buildDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	log := logger.Get()
	d := &deps{}

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL,
			postgres.WithMaxOpenConns(cfg.DBMaxOpenConns),
			postgres.WithMaxIdleConns(cfg.DBMaxIdleConns),
			postgres.WithConnMaxLifetime(cfg.ConnMaxLifetime()),
		)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.closers = append(d.closers, db)

		src := postgres.NewSource(db)
		d.source = src
		d.checkers = append(d.checkers, api.CheckerFunc("postgres", src.Ping))
		if cfg.NotifyChannel != "" {
			d.listener = postgres.NewListener(cfg.DatabaseURL, cfg.NotifyChannel)
		}
	} else {
		sink := seed.NewMemorySink()
		if _, err := seed.Run(ctx, &seed.Config{Batches: demoBatches}, seed.NewGenerator(), sink); err != nil {
			return nil, fmt.Errorf("generate demo data: %w", err)
		}
		snap, err := sink.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate demo data: %w", err)
		}
		d.source = repository.NewStaticSource(snap)
		log.Warn(ctx, "no database_url configured; ranking generated demo data",
			logger.Int("topics", len(snap.Topics)),
			logger.Int("posts", len(snap.Posts)),
		)
	}

	switch cfg.BoardBackend {
	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		d.closers = append(d.closers, client)

		rb := redis.NewBoard(client, redis.WithKey(cfg.RedisKey), redis.WithTTL(cfg.BoardTTL()))
		d.board = rb
		d.checkers = append(d.checkers, api.CheckerFunc("redis", rb.Ping))
	default:
		d.board = repository.NewMemoryBoard()
	}

	return d, nil
}

// newEngine builds the ranking engine from configuration.
func newEngine(cfg *config.Config) *ranking.Engine {
	return ranking.NewEngine(
		ranking.WithWeights(cfg.VelocityWeight, cfg.PostsWeight, cfg.BonusWeight),
		ranking.WithEarlySignalerCount(cfg.EarlySignalerCount),
		ranking.WithScorer(scoring.NewCredibilityScorer(scoring.WithCredibleKeywords(cfg.CredibleKeywords))),
	)
}

func newService(cfg *config.Config, d *deps) *app.Service {
	opts := []app.Option{
		app.WithLogger(logger.Get()),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithRefreshInterval(cfg.RefreshInterval()),
		app.WithRefreshTimeout(cfg.RefreshTimeout()),
		app.WithEngine(newEngine(cfg)),
	}
	if d.listener != nil {
		opts = append(opts, app.WithListener(d.listener))
	}
	return app.New(d.source, d.board, opts...)
}

// newHandler registers every route and wraps the mux in panic recovery.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, checkers ...api.Checker) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, cfg.MaxLeaderboardLimit, checkers...)
	apiServer.Register(ctx, mux)

	return api.RecoverMiddleware(mux)
}
