package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/trendrank/internal/adapters/repository/postgres"
	"github.com/okian/trendrank/internal/config"
	"github.com/okian/trendrank/internal/domain/ranking"
	"github.com/okian/trendrank/internal/domain/scoring"
	"github.com/okian/trendrank/internal/domain/types"
	"github.com/okian/trendrank/internal/seed"
	"github.com/okian/trendrank/pkg/logger"
)

func main() {
	var (
		dbURL      = flag.String("db", "", "Postgres URL")
		initSchema = flag.Bool("init-schema", false, "Create tables and change triggers before seeding")
		batches    = flag.Int("batches", 1, "Number of batches to generate")
		interval   = flag.Duration("interval", 0, "Pause between batches")
		seedValue  = flag.Int64("seed", 0, "Random seed for reproducible rows")
		dryRun     = flag.Bool("dry-run", false, "Keep rows in memory, rank them and print the board")
		top        = flag.Int("top", 0, "Rows shown by -dry-run")
		output     = flag.String("output", "", "Write the -dry-run board as JSON to this file")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	log := logger.Get().Named("seed")

	if *dbURL == "" {
		*dbURL = cfg.DatabaseURL
	}

	runCfg := &seed.Config{
		Batches:  *batches,
		Interval: *interval,
		Seed:     *seedValue,
		Top:      *top,
		Output:   *output,
	}
	gen := seed.NewGenerator(seed.WithSeed(runCfg.Seed))

	if *dryRun {
		err = dryRunBoard(ctx, cfg, runCfg, gen)
	} else {
		err = seedDatabase(ctx, cfg, runCfg, gen, *dbURL, *initSchema)
	}
	if err != nil {
		log.Error(ctx, "seed run failed", logger.Error(err))
		os.Exit(1)
	}
}

// dryRunBoard ranks generated rows in memory and prints the board.
func dryRunBoard(ctx context.Context, cfg *config.Config, runCfg *seed.Config, gen *seed.Generator) error {
	sink := seed.NewMemorySink()
	stats, err := seed.Run(ctx, runCfg, gen, sink)
	if err != nil {
		return err
	}
	seed.WriteStats(os.Stdout, stats)

	snap, err := sink.Load(ctx)
	if err != nil {
		return err
	}
	engine := ranking.NewEngine(
		ranking.WithWeights(cfg.VelocityWeight, cfg.PostsWeight, cfg.BonusWeight),
		ranking.WithEarlySignalerCount(cfg.EarlySignalerCount),
		ranking.WithScorer(scoring.NewCredibilityScorer(scoring.WithCredibleKeywords(cfg.CredibleKeywords))),
	)
	now := time.Now()
	board := types.Board{ComputedAt: now, Topics: engine.Rank(snap.Topics, snap.Posts, snap.Authors, now)}

	if err := seed.WriteBoard(os.Stdout, board, runCfg.Top); err != nil {
		return err
	}
	if runCfg.Output != "" {
		return seed.SaveBoard(runCfg.Output, board)
	}
	return nil
}

// seedDatabase writes generated rows to Postgres.
func seedDatabase(ctx context.Context, cfg *config.Config, runCfg *seed.Config, gen *seed.Generator, dsn string, initSchema bool) error {
	db, err := postgres.Open(ctx, dsn,
		postgres.WithMaxOpenConns(cfg.DBMaxOpenConns),
		postgres.WithMaxIdleConns(cfg.DBMaxIdleConns),
	)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	writer := postgres.NewWriter(db)
	if initSchema {
		if err := writer.EnsureSchema(ctx, cfg.NotifyChannel); err != nil {
			return err
		}
	}

	stats, err := seed.Run(ctx, runCfg, gen, writer)
	if err != nil {
		return err
	}
	seed.WriteStats(os.Stdout, stats)
	return nil
}
