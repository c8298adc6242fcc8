package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/internal/domain/recognition"
	"github.com/chimeralabs/accolade/internal/domain/types"
)

// stubDeps is a canned Dependencies implementation for handler tests.
type stubDeps struct {
	recordErr    error
	recorded     []model.GameEvent
	progress     types.ProgressEntry
	progressErr  error
	totals       types.PlayerTotals
	rewards      []types.RewardEntry
	rewardsErr   error
	achievements []model.AchievementDefinition
	profile      recognition.Profile
	hasProfile   bool
	active       []model.Notification
	health       []types.StageHealth
	forceErr     error
}

func (s *stubDeps) RecordEvent(_ context.Context, e model.GameEvent) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded = append(s.recorded, e)
	return nil
}

func (s *stubDeps) GetProgress(_ context.Context, _, _ string) (types.ProgressEntry, error) {
	return s.progress, s.progressErr
}

func (s *stubDeps) GetPlayerProgress(_ context.Context, _ string) []types.ProgressEntry {
	return []types.ProgressEntry{s.progress}
}

func (s *stubDeps) GetPlayerTotals(_ context.Context, _ string) types.PlayerTotals {
	return s.totals
}

func (s *stubDeps) GetRewardHistory(_ context.Context, _ string, _ int) ([]types.RewardEntry, error) {
	return s.rewards, s.rewardsErr
}

func (s *stubDeps) ListAchievements(_ context.Context, _ string) []model.AchievementDefinition {
	return s.achievements
}

func (s *stubDeps) GetRecognition(_ context.Context, _ string) (recognition.Profile, bool) {
	return s.profile, s.hasProfile
}

func (s *stubDeps) ActiveNotifications(_ context.Context) []model.Notification {
	return s.active
}

func (s *stubDeps) GetServiceHealth(_ context.Context) []types.StageHealth {
	return s.health
}

func (s *stubDeps) ForceHealthCheck(_ context.Context) error { return s.forceErr }
func (s *stubDeps) ForceSave(_ context.Context) error        { return s.forceErr }

func (s *stubDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestMux(deps *stubDeps) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(deps, deps).Register(context.Background(), mux)
	return mux
}

func TestHandlePostEvent(t *testing.T) {
	t.Run("accepts a valid event", func(t *testing.T) {
		deps := &stubDeps{}
		mux := newTestMux(deps)

		body := `{"type":"plant_harvested","player_id":"player-1","value":1}`
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body)))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(deps.recorded) != 1 || deps.recorded[0].Type != "plant_harvested" {
			t.Fatalf("event not recorded: %+v", deps.recorded)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		mux := newTestMux(&stubDeps{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader("{not json")))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		mux := newTestMux(&stubDeps{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"type":"x"}`)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("translates backpressure to 429", func(t *testing.T) {
		deps := &stubDeps{recordErr: errors.New("command queue full")}
		mux := newTestMux(deps)

		body := `{"type":"plant_harvested","player_id":"player-1"}`
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body)))

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	})

	t.Run("translates shutdown to 503", func(t *testing.T) {
		deps := &stubDeps{recordErr: errors.New("service shutting down")}
		mux := newTestMux(deps)

		body := `{"type":"plant_harvested","player_id":"player-1"}`
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body)))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestHandleGetProgress(t *testing.T) {
	t.Run("returns a progress entry", func(t *testing.T) {
		deps := &stubDeps{progress: types.ProgressEntry{
			PlayerID:      "player-1",
			AchievementID: "first_harvest",
			Current:       1,
			Target:        1,
			Completed:     true,
		}}
		mux := newTestMux(deps)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress/player-1/first_harvest", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var entry types.ProgressEntry
		if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !entry.Completed || entry.AchievementID != "first_harvest" {
			t.Fatalf("unexpected entry: %+v", entry)
		}
	})

	t.Run("translates unknown achievement to 404", func(t *testing.T) {
		deps := &stubDeps{progressErr: errors.New("unknown achievement")}
		mux := newTestMux(deps)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress/player-1/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed paths", func(t *testing.T) {
		mux := newTestMux(&stubDeps{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress/player-1", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandlePlayers(t *testing.T) {
	t.Run("returns totals", func(t *testing.T) {
		deps := &stubDeps{totals: types.PlayerTotals{PlayerID: "player-1", TotalPoints: 40}}
		mux := newTestMux(deps)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/player-1/totals", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var totals types.PlayerTotals
		if err := json.Unmarshal(rec.Body.Bytes(), &totals); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if totals.TotalPoints != 40 {
			t.Fatalf("unexpected totals: %+v", totals)
		}
	})

	t.Run("rejects a non-positive rewards limit", func(t *testing.T) {
		mux := newTestMux(&stubDeps{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/player-1/rewards?limit=0", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns an empty bronze profile for unknown players", func(t *testing.T) {
		mux := newTestMux(&stubDeps{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/nobody/recognition", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"tier":"bronze"`) {
			t.Fatalf("expected bronze profile, got %s", rec.Body.String())
		}
	})

	t.Run("unknown resource is 404", func(t *testing.T) {
		mux := newTestMux(&stubDeps{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/player-1/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleServicesHealth(t *testing.T) {
	t.Run("healthy pipeline is 200", func(t *testing.T) {
		deps := &stubDeps{health: []types.StageHealth{
			{Stage: "queue", Healthy: true, State: "healthy"},
			{Stage: "progress", Healthy: true, State: "healthy"},
		}}
		mux := newTestMux(deps)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/services", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("degraded stage flips to 503", func(t *testing.T) {
		deps := &stubDeps{health: []types.StageHealth{
			{Stage: "queue", Healthy: true, State: "healthy"},
			{Stage: "persistence", Healthy: false, State: "degraded"},
		}}
		mux := newTestMux(deps)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/services", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestHandleAchievementsAndNotifications(t *testing.T) {
	t.Run("lists achievements", func(t *testing.T) {
		deps := &stubDeps{achievements: []model.AchievementDefinition{
			{ID: "first_harvest", Name: "First Harvest", Category: model.CategoryHarvest, Rarity: model.RarityCommon, Trigger: "plant_harvested", Target: 1, Points: 10},
		}}
		mux := newTestMux(deps)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/achievements?player=player-1", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"id":"first_harvest"`) {
			t.Fatalf("missing achievement in %s", rec.Body.String())
		}
	})

	t.Run("lists active notifications", func(t *testing.T) {
		deps := &stubDeps{active: []model.Notification{
			{
				ID:          "n-1",
				Achievement: model.AchievementDefinition{ID: "first_harvest", Name: "First Harvest", Rarity: model.RarityCommon},
				Status:      model.NotificationDisplaying,
				Priority:    1,
			},
		}}
		mux := newTestMux(deps)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications/active", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"displaying"`) {
			t.Fatalf("missing notification in %s", rec.Body.String())
		}
	})
}

func TestHandleStats(t *testing.T) {
	mux := newTestMux(&stubDeps{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"started":true`) {
		t.Fatalf("unexpected stats body: %s", rec.Body.String())
	}
}
