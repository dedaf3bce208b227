package ranking

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/domain/scoring"
)

// Default ranking configuration constants.
const (
	defaultVelocityWeight  = 0.5
	defaultPostsWeight     = 0.2
	defaultBonusWeight     = 0.3
	defaultReasonThreshold = 0.7
	scoreScale             = 100
)

// Signal reasons, checked in this order.
const (
	ReasonEarlySignalers = "High credibility early signalers"
	ReasonVelocity       = "Explosive velocity growth"
	ReasonVolume         = "High volume engagement"
	ReasonMixed          = "Mixed signals from multiple factors"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the weights of normalized velocity, post volume and early
// signaler bonus in the final score. Negative weights are ignored.
func WithWeights(velocity, posts, bonus float64) Option {
	return func(e *Engine) {
		if velocity >= 0 && posts >= 0 && bonus >= 0 {
			e.velocityWeight = velocity
			e.postsWeight = posts
			e.bonusWeight = bonus
		}
	}
}

// WithEarlySignalerCount sets how many early posts feed the bonus.
func WithEarlySignalerCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.earlyCount = n
		}
	}
}

// WithReasonThreshold sets the normalized value a dimension must exceed to
// name the signal reason.
func WithReasonThreshold(t float64) Option {
	return func(e *Engine) {
		if t >= 0 && t <= 1 {
			e.reasonThreshold = t
		}
	}
}

// WithScorer sets the author credibility scorer.
func WithScorer(s *scoring.CredibilityScorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// Engine ranks topics. It keeps only configuration, so one Engine can serve
// concurrent Rank calls.
type Engine struct {
	scorer          *scoring.CredibilityScorer
	velocityWeight  float64
	postsWeight     float64
	bonusWeight     float64
	earlyCount      int
	reasonThreshold float64
}

// NewEngine creates an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		scorer:          scoring.NewCredibilityScorer(),
		velocityWeight:  defaultVelocityWeight,
		postsWeight:     defaultPostsWeight,
		bonusWeight:     defaultBonusWeight,
		earlyCount:      DefaultEarlySignalerCount,
		reasonThreshold: defaultReasonThreshold,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Rank scores and orders topics, descending by final trend score. Ties keep
// input order. Rank is the 1-based position. Empty input gives an empty,
// non-nil slice.
func (e *Engine) Rank(topics []model.Topic, posts []model.Post, authors []model.Author, now time.Time) []model.RankedTopic {
	ranked := make([]model.RankedTopic, len(topics))
	if len(topics) == 0 {
		return ranked
	}

	dir := NewDirectory(ScoreAuthors(authors, e.scorer, now))
	byTopic := groupPostsByTopic(posts)

	velocities := make([]float64, len(topics))
	volumes := make([]float64, len(topics))
	bonuses := make([]float64, len(topics))
	verifiedPosts := make([]int, len(topics))

	for i, t := range topics {
		topicPosts := byTopic[t.ID]
		m := ComputeTopicMetrics(t, topicPosts, dir)
		bonus := earlySignalerBonus(topicPosts, dir, e.earlyCount)

		ranked[i] = model.RankedTopic{
			Topic:                    t,
			EarlySignalerBonus:       bonus,
			AverageSourceCredibility: m.AverageSourceCredibility,
			VerifiedSourceCount:      m.VerifiedSourceCount,
			TotalUniqueAuthors:       len(m.UniqueAuthorIDs),
			PlatformDistribution:     m.PlatformDistribution,
			TotalEngagement:          m.TotalEngagement,
			AvgEngagementPerPost:     m.AvgEngagementPerPost,
			TimeActive:               m.TimeActive,
		}
		velocities[i] = t.AggregateVelocityScore
		volumes[i] = float64(t.TotalPosts)
		bonuses[i] = bonus
		verifiedPosts[i] = m.VerifiedPostCount
	}

	vLo, vHi := bounds(velocities)
	pLo, pHi := bounds(volumes)
	bLo, bHi := bounds(bonuses)

	for i := range ranked {
		nv := Normalize(velocities[i], vLo, vHi)
		np := Normalize(volumes[i], pLo, pHi)
		nb := Normalize(bonuses[i], bLo, bHi)

		ranked[i].FinalTrendScore = (nv*e.velocityWeight + np*e.postsWeight + nb*e.bonusWeight) * scoreScale
		ranked[i].SignalReason = e.signalReason(nv, np, nb, verifiedPosts[i])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalTrendScore > ranked[j].FinalTrendScore
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}

// signalReason names the dominant signal. verifiedPosts counts posts (not
// distinct authors) written by verified authors.
func (e *Engine) signalReason(velocity, volume, bonus float64, verifiedPosts int) string {
	var reason string
	switch {
	case bonus > e.reasonThreshold:
		reason = ReasonEarlySignalers
	case velocity > e.reasonThreshold:
		reason = ReasonVelocity
	case volume > e.reasonThreshold:
		reason = ReasonVolume
	default:
		reason = ReasonMixed
	}

	if verifiedPosts > 0 {
		plural := ""
		if verifiedPosts > 1 {
			plural = "s"
		}
		reason += fmt.Sprintf(" (%d verified source%s)", verifiedPosts, plural)
	}
	return reason
}
