// Package scoring computes author credibility scores.
package scoring

import (
	"strings"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
)

// Credibility scoring constants.
const (
	verifiedBonus       = 20
	reachBonus          = 30
	reachThreshold      = 100_000
	bioBonus            = 20
	incidentPenalty     = 50
	newAccountPenalty   = 30
	youngAccountPenalty = 15
	establishedBonus    = 5

	day             = 24 * time.Hour
	newAccountAge   = 30 * day
	youngAccountAge = 90 * day
	establishedAge  = 730 * day

	minScore = 0
	maxScore = 100
)

// DefaultCredibleKeywords are the bio terms that mark a credible role.
var DefaultCredibleKeywords = []string{
	"analyst", "journalist", "trader", "official", "economist", "expert", "senior", "verified",
}

// Option applies a configuration option to the CredibilityScorer.
type Option func(*CredibilityScorer)

// WithCredibleKeywords replaces the bio keyword set. Empty entries are ignored;
// an empty set keeps the defaults.
func WithCredibleKeywords(keywords []string) Option {
	return func(s *CredibilityScorer) {
		kws := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		if len(kws) > 0 {
			s.keywords = kws
		}
	}
}

// CredibilityScorer derives a 0-100 reputation proxy for an author.
// It holds no mutable state and is safe for concurrent use.
type CredibilityScorer struct {
	keywords []string
}

// NewCredibilityScorer creates a scorer with configuration options.
func NewCredibilityScorer(opts ...Option) *CredibilityScorer {
	s := &CredibilityScorer{
		keywords: DefaultCredibleKeywords,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the credibility of author as of now.
//
// Bonuses are added first, then penalties, then the account-age adjustment,
// and the sum is clamped to [0, 100]. The result depends on now through the
// account age, so the same author can score differently across calls.
func (s *CredibilityScorer) Score(author model.Author, now time.Time) int {
	score := 0

	if author.IsVerified {
		score += verifiedBonus
	}
	if author.FollowerCount > reachThreshold {
		score += reachBonus
	}
	if s.hasCredibleRole(author.Bio) {
		score += bioBonus
	}
	if author.DisinformationIncidents.Present() {
		score -= incidentPenalty
	}
	if !author.AccountCreatedAt.IsZero() {
		score += ageAdjustment(now.Sub(author.AccountCreatedAt))
	}

	return clamp(score)
}

// Keywords returns a copy of the configured bio keywords.
func (s *CredibilityScorer) Keywords() []string {
	out := make([]string, len(s.keywords))
	copy(out, s.keywords)
	return out
}

func (s *CredibilityScorer) hasCredibleRole(bio string) bool {
	lower := strings.ToLower(bio)
	for _, kw := range s.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ageAdjustment penalizes young accounts (bot risk) and rewards accounts
// older than two years.
func ageAdjustment(age time.Duration) int {
	switch {
	case age < newAccountAge:
		return -newAccountPenalty
	case age < youngAccountAge:
		return -youngAccountPenalty
	case age > establishedAge:
		return establishedBonus
	default:
		return 0
	}
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
