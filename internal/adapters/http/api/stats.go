package api

import (
	"net/http"
	"time"
)

// StatsProvider reports service counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the provider's counters stamped with the server time.
type StatsHandler struct {
	statsProvider StatsProvider
	now           func() time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, now: time.Now}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	src := h.statsProvider.GetStats()
	out := make(map[string]interface{}, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	out["serverTime"] = h.now().UTC()

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, out)
}
