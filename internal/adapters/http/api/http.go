// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/internal/domain/recognition"
	"github.com/chimeralabs/accolade/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the orchestrator.
type Dependencies interface {
	// RecordEvent pushes a game event for async processing.
	RecordEvent(ctx context.Context, e model.GameEvent) error

	// Read operations expose pipeline state.
	GetProgress(ctx context.Context, playerID, achievementID string) (types.ProgressEntry, error)
	GetPlayerProgress(ctx context.Context, playerID string) []types.ProgressEntry
	GetPlayerTotals(ctx context.Context, playerID string) types.PlayerTotals
	GetRewardHistory(ctx context.Context, playerID string, limit int) ([]types.RewardEntry, error)
	ListAchievements(ctx context.Context, playerID string) []model.AchievementDefinition
	GetRecognition(ctx context.Context, playerID string) (recognition.Profile, bool)
	ActiveNotifications(ctx context.Context) []model.Notification
	GetServiceHealth(ctx context.Context) []types.StageHealth

	// Control operations ride the orchestrator command queue.
	ForceHealthCheck(ctx context.Context) error
	ForceSave(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	eventsHandler        *EventsHandler
	progressHandler      *ProgressHandler
	playersHandler       *PlayersHandler
	achievementsHandler  *AchievementsHandler
	notificationsHandler *NotificationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(deps),
		statsHandler:         NewStatsHandler(statsProvider),
		eventsHandler:        NewEventsHandler(deps),
		progressHandler:      NewProgressHandler(deps),
		playersHandler:       NewPlayersHandler(deps),
		achievementsHandler:  NewAchievementsHandler(deps),
		notificationsHandler: NewNotificationsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("/health/services", MetricsMiddleware(s.healthHandler.HandleServices, "health_services"))
	mux.HandleFunc("/health/check", MetricsMiddleware(s.healthHandler.HandleForceCheck, "health_check"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/achievements", MetricsMiddleware(s.achievementsHandler.HandleList, "achievements"))
	mux.HandleFunc("/notifications/active", MetricsMiddleware(s.notificationsHandler.HandleActive, "notifications"))
	mux.HandleFunc("/progress/", MetricsMiddleware(s.progressHandler.HandleGetProgress, "progress"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playersHandler.HandlePlayer, "players"))
	mux.HandleFunc("/save", MetricsMiddleware(s.playersHandler.HandleForceSave, "save"))
}

// eventRequest mirrors the wire schema for POST /events.
type eventRequest struct {
	Type     string         `json:"type"`
	PlayerID string         `json:"player_id"`
	Value    float64        `json:"value"`
	TS       string         `json:"ts"`
	Payload  map[string]any `json:"payload,omitempty"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.Type) == "":
		return errors.New("missing type")
	case strings.TrimSpace(e.PlayerID) == "":
		return errors.New("missing player_id")
	case e.Value < 0:
		return errors.New("value must not be negative")
	}
	if e.TS != "" {
		if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
// Best-effort string check to avoid tight coupling with specific packages.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "unknown achievement")
}

// isBackpressure recognizes bounded-queue rejections.
func isBackpressure(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "queue full")
}

// isUnavailable recognizes lifecycle rejections during startup or shutdown.
func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not started") || strings.Contains(msg, "shutting down")
}
