package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/trendrank/internal/adapters/repository"
	"github.com/okian/trendrank/pkg/logger"
	"github.com/okian/trendrank/pkg/metrics"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before any header is sent, so an unencodable value
// becomes a 500 instead of a truncated body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Get().Named("http").Error(context.Background(), "encode response failed", logger.Error(err))
		metrics.RecordErrorByComponent("http", "encode")
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: "response could not be encoded"})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Get().Named("http").Warn(context.Background(), "write response failed", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeReadError maps board read errors to responses.
func writeReadError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNoBoard):
		writeError(w, http.StatusServiceUnavailable, "not_ready", WrapKind(op, ErrNotReady, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
