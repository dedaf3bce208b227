package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/trendrank/pkg/metrics"
)

const readyTimeout = 2 * time.Second

// HealthHandler serves the Prometheus registry.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests with the service metrics.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// Checker is a backend whose reachability gates readiness.
type Checker interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a ping function to Checker.
func CheckerFunc(name string, ping func(ctx context.Context) error) Checker {
	return checkerFunc{name: name, ping: ping}
}

type checkerFunc struct {
	name string
	ping func(ctx context.Context) error
}

func (c checkerFunc) Name() string                   { return c.name }
func (c checkerFunc) Ping(ctx context.Context) error { return c.ping(ctx) }

// ReadyHandler reports whether every backend answers.
type ReadyHandler struct {
	checkers []Checker
}

// NewReadyHandler creates a readiness handler over checkers.
func NewReadyHandler(checkers ...Checker) *ReadyHandler {
	return &ReadyHandler{checkers: checkers}
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HandleReady handles GET /readyz requests.
func (h *ReadyHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := readyResponse{Status: "ok", Checks: make(map[string]string, len(h.checkers))}
	status := http.StatusOK
	for _, c := range h.checkers {
		if err := c.Ping(ctx); err != nil {
			resp.Checks[c.Name()] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			metrics.RecordErrorByComponent("readyz", c.Name())
			continue
		}
		resp.Checks[c.Name()] = "ok"
	}
	writeJSON(w, status, resp)
}
