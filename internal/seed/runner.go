package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/trendrank/pkg/logger"
)

// Run generates cfg.Batches batches and writes each to sink.
func Run(ctx context.Context, cfg *Config, gen *Generator, sink Sink) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("seed")

	log.Info(ctx, "starting seed run",
		logger.Int("batches", cfg.Batches),
		logger.Duration("interval", cfg.Interval),
		logger.Int64("seed", cfg.Seed),
	)

	for i := 0; i < cfg.Batches; i++ {
		if i > 0 && cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return stats, fmt.Errorf("seed run cancelled: %w", ctx.Err())
			case <-time.After(cfg.Interval):
			}
		}

		existing, err := sink.Topics(ctx, topicFetchLimit)
		if err != nil {
			return stats, fmt.Errorf("batch %d: list topics: %w", i, err)
		}

		b := gen.Batch(existing)
		if err := sink.Insert(ctx, b.Snapshot()); err != nil {
			return stats, fmt.Errorf("batch %d: %w", i, err)
		}
		for _, t := range b.Updated {
			if err := sink.UpdateTopic(ctx, t); err != nil {
				// Topic updates are best effort.
				log.Warn(ctx, "topic update failed", logger.String("topic", t.ID), logger.Error(err))
			}
		}

		stats.add(b)
		log.Info(ctx, "batch written",
			logger.Int("batch", i+1),
			logger.Int("authors", len(b.Authors)),
			logger.Int("topicsCreated", len(b.Topics)),
			logger.Int("topicsUpdated", len(b.Updated)),
			logger.Int("posts", len(b.Posts)),
		)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	return stats, nil
}
