package ranking

import (
	"sort"

	"github.com/okian/trendrank/internal/domain/model"
)

// DefaultEarlySignalerCount is how many of the earliest posts count as early signals.
const DefaultEarlySignalerCount = 5

// EarlySignalerBonus returns the mean credibility of the authors of the first
// limit posts on topicID, ordered by post time. Unresolved authors contribute
// 0. A topic without posts gets 0.
func EarlySignalerBonus(topicID string, posts []model.Post, dir *Directory, limit int) float64 {
	var topicPosts []model.Post
	for _, p := range posts {
		if p.TopicID == topicID {
			topicPosts = append(topicPosts, p)
		}
	}
	return earlySignalerBonus(topicPosts, dir, limit)
}

// earlySignalerBonus works on posts already filtered to one topic.
func earlySignalerBonus(topicPosts []model.Post, dir *Directory, limit int) float64 {
	if len(topicPosts) == 0 || limit < 1 {
		return 0
	}

	ordered := make([]model.Post, len(topicPosts))
	copy(ordered, topicPosts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PostTimestamp.Before(ordered[j].PostTimestamp)
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	sum := 0
	for _, p := range ordered {
		sum += dir.Score(p.AuthorID)
	}
	return float64(sum) / float64(len(ordered))
}
