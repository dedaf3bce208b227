package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/domain/types"
)

// BoardDependencies defines the interface for board reads.
type BoardDependencies interface {
	Board(ctx context.Context) (types.Board, error)
	Topic(ctx context.Context, id string) (model.RankedTopic, error)
}

// BoardHandler serves the full board and single topics.
type BoardHandler struct {
	deps BoardDependencies
}

// NewBoardHandler creates a new board handler.
func NewBoardHandler(deps BoardDependencies) *BoardHandler {
	return &BoardHandler{deps: deps}
}

// HandleGetBoard handles GET /board requests.
func (h *BoardHandler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_board"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	b, err := h.deps.Board(r.Context())
	if err != nil {
		writeReadError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleGetTopic handles GET /topics/{topic_id} requests.
func (h *BoardHandler) HandleGetTopic(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_topic"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/topics/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	t, err := h.deps.Topic(r.Context(), id)
	if err != nil {
		writeReadError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
