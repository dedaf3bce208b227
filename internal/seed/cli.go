package seed

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`trendrank seeder
================

Generates synthetic authors, topics and posts.

Usage:
  go run ./cmd/seed [options]

Options:
  -db string
        Postgres URL (default: TRENDRANK_DATABASE_URL or config file)
  -init-schema
        Create tables and change triggers before seeding
  -batches int
        Number of batches to generate (default 1)
  -interval duration
        Pause between batches (default 0)
  -seed int
        Random seed for reproducible rows (default: clock)
  -dry-run
        Keep rows in memory, rank them and print the board
  -top int
        Rows shown by -dry-run (default 10)
  -output string
        Write the -dry-run board as JSON to this file
  -help
        Show this help message

Examples:
  # Rank 20 reproducible batches without a database
  go run ./cmd/seed -dry-run -batches 20 -seed 42

  # Feed a running service one batch every two seconds
  go run ./cmd/seed -db postgres://localhost/trends -batches 100 -interval 2s
`)
}
