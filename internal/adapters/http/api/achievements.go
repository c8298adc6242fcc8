// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

// AchievementDependencies defines the interface for catalog queries.
type AchievementDependencies interface {
	ListAchievements(ctx context.Context, playerID string) []model.AchievementDefinition
}

// AchievementsHandler handles catalog requests.
type AchievementsHandler struct {
	deps AchievementDependencies
}

// NewAchievementsHandler creates a new achievements handler.
func NewAchievementsHandler(deps AchievementDependencies) *AchievementsHandler {
	return &AchievementsHandler{deps: deps}
}

// achievementResponse mirrors the wire shape of one catalog definition.
type achievementResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Rarity   string  `json:"rarity"`
	Trigger  string  `json:"trigger"`
	Target   float64 `json:"target"`
	Points   int     `json:"points"`
}

// HandleList handles GET /achievements requests. The optional player query
// parameter controls secret-achievement visibility.
func (h *AchievementsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	playerID := r.URL.Query().Get("player")
	defs := h.deps.ListAchievements(r.Context(), playerID)

	out := make([]achievementResponse, len(defs))
	for i, def := range defs {
		out[i] = achievementResponse{
			ID:       def.ID,
			Name:     def.Name,
			Category: string(def.Category),
			Rarity:   string(def.Rarity),
			Trigger:  def.Trigger,
			Target:   def.Target,
			Points:   def.Points,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
