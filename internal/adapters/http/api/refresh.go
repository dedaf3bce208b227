package api

import (
	"context"
	"net/http"

	"github.com/okian/trendrank/internal/domain/model"
)

// RefreshDependencies defines the interface for manual refreshes.
type RefreshDependencies interface {
	Refresh(ctx context.Context, reason string) bool
}

// RefreshHandler handles manual refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandlePostRefresh handles POST /refresh requests.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.deps.Refresh(r.Context(), model.ReasonManual) {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
