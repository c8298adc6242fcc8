// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

// EventDependencies defines the interface for event submission.
type EventDependencies interface {
	RecordEvent(ctx context.Context, e model.GameEvent) error
}

// EventsHandler handles event requests
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	e := model.NewGameEvent(req.Type, req.PlayerID, req.Value, req.Payload)
	if req.TS != "" {
		// Validated RFC3339 above.
		e.TS, _ = time.Parse(time.RFC3339, req.TS)
	}

	if err := h.deps.RecordEvent(r.Context(), e); err != nil {
		switch {
		case isBackpressure(err):
			writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		case isUnavailable(err):
			writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
