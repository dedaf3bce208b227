package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	Batches  int           // number of batches to generate
	Interval time.Duration // pause between batches
	Seed     int64         // random seed; 0 picks one from the clock
	Top      int           // rows printed by the dry-run report
	Output   string        // optional JSON file for the dry-run board
}

// Stats holds run statistics.
type Stats struct {
	Batches       int
	Authors       int
	TopicsCreated int
	TopicsUpdated int
	Posts         int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

func (s *Stats) add(b Batch) {
	s.Batches++
	s.Authors += len(b.Authors)
	s.TopicsCreated += len(b.Topics)
	s.TopicsUpdated += len(b.Updated)
	s.Posts += len(b.Posts)
}
