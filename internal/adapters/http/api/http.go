// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/domain/types"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Refresh asks for a ranking pass. Returns false on backpressure.
	Refresh(ctx context.Context, reason string) bool

	// Read operations expose the latest board.
	Board(ctx context.Context) (types.Board, error)
	TopN(ctx context.Context, n int) ([]Entry, error)
	Topic(ctx context.Context, id string) (model.RankedTopic, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	readyHandler       *ReadyHandler
	statsHandler       *StatsHandler
	boardHandler       *BoardHandler
	leaderboardHandler *LeaderboardHandler
	refreshHandler     *RefreshHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps
// /leaderboard; checkers back /readyz.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int, checkers ...Checker) *Server {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		readyHandler:       NewReadyHandler(checkers...),
		statsHandler:       NewStatsHandler(statsProvider),
		boardHandler:       NewBoardHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		refreshHandler:     NewRefreshHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/readyz", MetricsMiddleware(s.readyHandler.HandleReady, "readyz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/board", MetricsMiddleware(s.boardHandler.HandleGetBoard, "board"))
	mux.HandleFunc("/topics/", MetricsMiddleware(s.boardHandler.HandleGetTopic, "topics"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/refresh", MetricsMiddleware(s.refreshHandler.HandlePostRefresh, "refresh"))
}
