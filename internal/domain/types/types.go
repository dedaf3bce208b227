// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/trendrank/internal/domain/model"
)

// Board is one published ranking pass.
type Board struct {
	ComputedAt time.Time           `json:"computed_at"`
	Topics     []model.RankedTopic `json:"topics"`
}

// NewerThan reports whether b was computed after other.
func (b Board) NewerThan(other Board) bool {
	return b.ComputedAt.After(other.ComputedAt)
}

// Entries returns the compact leaderboard view of the first n topics.
// n <= 0 or n past the end returns every topic.
func (b Board) Entries(n int) []Entry {
	if n <= 0 || n > len(b.Topics) {
		n = len(b.Topics)
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = NewEntry(b.Topics[i])
	}
	return out
}

// Entry represents a leaderboard entry
type Entry struct {
	Rank            int     `json:"rank"`
	TopicID         string  `json:"topic_id"`
	TopicName       string  `json:"topic_name"`
	FinalTrendScore float64 `json:"final_trend_score"`
	SignalReason    string  `json:"signal_reason"`
	Status          string  `json:"status"`
}

// NewEntry builds the leaderboard entry for a ranked topic.
func NewEntry(t model.RankedTopic) Entry {
	return Entry{
		Rank:            t.Rank,
		TopicID:         t.ID,
		TopicName:       t.TopicName,
		FinalTrendScore: t.FinalTrendScore,
		SignalReason:    t.SignalReason,
		Status:          t.Status,
	}
}
