package seed

import "time"

// Batch shape.
const (
	minAuthors      = 3
	authorSpread    = 3 // 3-5 authors
	minTopicSlots   = 2
	topicSpread     = 3 // 2-4 topics created or updated
	minPosts        = 5
	postSpread      = 11 // 5-15 posts
	updateCandidate = 5  // existing topics considered for an update
	updateChance    = 0.5
	topicFetchLimit = 1000
)

// Author distributions.
const (
	establishedShare   = 0.7
	youngShare         = 0.9 // cumulative
	establishedMinDays = 180
	establishedMaxDays = 5 * 365
	youngMinDays       = 30
	youngSpanDays      = 150
	newMaxDays         = 30
	verifiedAbove      = 0.7
	incidentAbove      = 0.9
	minFollowers       = 1000
	followerSpread     = 100000
	usernameSuffix     = 10000
)

// Topic distributions.
const (
	maxVelocity     = 100
	maxTopicPosts   = 1000
	maxTopicViews   = 100000
	maxTopicReposts = 5000
	maxTopicReplies = 10000
	detectionWindow = 7 * 24 * time.Hour
	postWindow      = 24 * time.Hour
	postPlatform    = "twitter"
	activeStatus    = "active"
)

// Counter bumps applied to an updated topic.
const (
	bumpPostsMin    = 1
	bumpPosts       = 10
	bumpViewsMin    = 100
	bumpViews       = 1000
	bumpRepostsMin  = 5
	bumpReposts     = 50
	bumpRepliesMin  = 10
	bumpReplies     = 100
	directoryPerm   = 0750
	outputFilePerm  = 0600
	defaultTopShown = 10
)

var sampleTopics = []string{ //nolint:gochecknoglobals // fixed sample data
	"Climate Change Policy", "AI Regulation", "Economic Recession", "Space Exploration",
	"Cryptocurrency Market", "Healthcare Reform", "Election Security", "Tech Layoffs",
	"Energy Crisis", "Social Media Regulation", "Cybersecurity Threats", "Pandemic Response",
}

var sampleUsernames = []string{ //nolint:gochecknoglobals // fixed sample data
	"tech_analyst", "policy_expert", "data_scientist", "news_reporter",
	"industry_insider", "research_lead", "political_observer", "market_watcher",
	"climate_activist", "security_expert", "health_official", "crypto_enthusiast",
}
