// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/internal/domain/recognition"
	"github.com/chimeralabs/accolade/internal/domain/types"
)

const defaultRewardHistoryLimit = 20

// PlayerDependencies defines the interface for per-player read operations.
type PlayerDependencies interface {
	GetPlayerProgress(ctx context.Context, playerID string) []types.ProgressEntry
	GetPlayerTotals(ctx context.Context, playerID string) types.PlayerTotals
	GetRewardHistory(ctx context.Context, playerID string, limit int) ([]types.RewardEntry, error)
	GetRecognition(ctx context.Context, playerID string) (recognition.Profile, bool)
	ForceSave(ctx context.Context) error
}

// PlayersHandler handles per-player read requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// recognitionResponse mirrors the wire shape of a recognition profile.
type recognitionResponse struct {
	PlayerID       string                 `json:"player_id"`
	TotalPoints    int                    `json:"total_points"`
	CompletedCount int                    `json:"completed_count"`
	Tier           string                 `json:"tier"`
	Prestige       int                    `json:"prestige"`
	Badges         map[model.Category]int `json:"badges,omitempty"`
}

// HandlePlayer routes GET /players/{player_id}/{resource} requests.
func (h *PlayersHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /players/
	path := strings.TrimPrefix(r.URL.Path, "/players/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	playerID, resource := parts[0], parts[1]

	switch resource {
	case "progress":
		writeJSON(w, http.StatusOK, h.deps.GetPlayerProgress(r.Context(), playerID))
	case "totals":
		writeJSON(w, http.StatusOK, h.deps.GetPlayerTotals(r.Context(), playerID))
	case "rewards":
		h.handleRewards(w, r, playerID)
	case "recognition":
		h.handleRecognition(w, r, playerID)
	default:
		http.NotFound(w, r)
	}
}

func (h *PlayersHandler) handleRewards(w http.ResponseWriter, r *http.Request, playerID string) {
	limit := defaultRewardHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		limit = parsed
	}
	history, err := h.deps.GetRewardHistory(r.Context(), playerID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *PlayersHandler) handleRecognition(w http.ResponseWriter, r *http.Request, playerID string) {
	profile, ok := h.deps.GetRecognition(r.Context(), playerID)
	if !ok {
		// A player with no completions has an empty bronze profile.
		writeJSON(w, http.StatusOK, recognitionResponse{
			PlayerID: playerID,
			Tier:     string(recognition.TierBronze),
		})
		return
	}
	writeJSON(w, http.StatusOK, recognitionResponse{
		PlayerID:       profile.PlayerID,
		TotalPoints:    profile.TotalPoints,
		CompletedCount: profile.CompletedCount,
		Tier:           string(profile.Tier),
		Prestige:       profile.Prestige,
		Badges:         profile.Badges,
	})
}

// HandleForceSave handles POST /save requests.
func (h *PlayersHandler) HandleForceSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.ForceSave(r.Context()); err != nil {
		switch {
		case isBackpressure(err):
			writeError(w, http.StatusTooManyRequests, "backpressure", err)
		case isUnavailable(err):
			writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "save queued"})
}
