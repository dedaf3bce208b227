package ranking

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
)

const minutesPerHour = 60

// TopicMetrics are the per-topic aggregates shown next to the score.
type TopicMetrics struct {
	UniqueAuthorIDs          []string
	AverageSourceCredibility float64
	VerifiedSourceCount      int // distinct verified authors
	VerifiedPostCount        int // posts whose author is verified
	PlatformDistribution     []model.PlatformCount
	TotalEngagement          int64
	AvgEngagementPerPost     float64
	TimeActive               string
}

// ComputeTopicMetrics derives the aggregates of topic from its posts.
// topicPosts must already be filtered to the topic.
func ComputeTopicMetrics(topic model.Topic, topicPosts []model.Post, dir *Directory) TopicMetrics {
	m := TopicMetrics{
		UniqueAuthorIDs:      []string{},
		PlatformDistribution: []model.PlatformCount{},
	}

	seenAuthor := make(map[string]struct{})
	platformIdx := make(map[string]int)
	for _, p := range topicPosts {
		if _, ok := seenAuthor[p.AuthorID]; !ok {
			seenAuthor[p.AuthorID] = struct{}{}
			m.UniqueAuthorIDs = append(m.UniqueAuthorIDs, p.AuthorID)
		}
		if i, ok := platformIdx[p.Platform]; ok {
			m.PlatformDistribution[i].Count++
		} else {
			platformIdx[p.Platform] = len(m.PlatformDistribution)
			m.PlatformDistribution = append(m.PlatformDistribution, model.PlatformCount{Platform: p.Platform, Count: 1})
		}
		if dir.Verified(p.AuthorID) {
			m.VerifiedPostCount++
		}
	}

	// Zero-scored and unresolved authors are left out of the average.
	sum, n := 0, 0
	for _, id := range m.UniqueAuthorIDs {
		if s := dir.Score(id); s > 0 {
			sum += s
			n++
		}
		if dir.Verified(id) {
			m.VerifiedSourceCount++
		}
	}
	if n > 0 {
		m.AverageSourceCredibility = float64(sum) / float64(n)
	}

	m.TotalEngagement = topic.TotalViews + topic.TotalReposts + topic.TotalReplies
	if topic.TotalPosts > 0 {
		m.AvgEngagementPerPost = float64(m.TotalEngagement) / float64(topic.TotalPosts)
	}
	m.TimeActive = FormatTimeActive(topic.FirstDetectedAt, topic.LastUpdatedAt)

	return m
}

// FormatTimeActive renders last-first in hours rounded to one decimal, or in
// whole minutes when that is under an hour: "45m", "1.5h", "12h".
func FormatTimeActive(first, last time.Time) string {
	hours := roundHalfUp(last.Sub(first).Hours()*10) / 10
	if hours < 1 {
		return fmt.Sprintf("%dm", int64(roundHalfUp(hours*minutesPerHour)))
	}
	return strconv.FormatFloat(hours, 'f', -1, 64) + "h"
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
