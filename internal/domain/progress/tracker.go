// Package progress maintains per-player accumulated progress toward
// achievement targets and detects completions.
//
// The Tracker is the exclusive owner of the progress table: every other
// stage reads through accessors and nothing else mutates a record. A single
// mutex serializes access; per-player event order is preserved because one
// batch is applied under one lock hold.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/chimeralabs/accolade/internal/domain/catalog"
	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/pkg/logger"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// Completion records one first-time threshold crossing. Emitted at most once
// per (player, achievement) pair within a reset cycle.
type Completion struct {
	Definition *model.AchievementDefinition
	Progress   model.Progress
	At         time.Time
}

// Tracker owns the (player, achievement) progress table.
type Tracker struct {
	mu      sync.RWMutex
	table   map[model.ProgressKey]*model.Progress
	catalog *catalog.Catalog

	// nextReset holds the upcoming reset boundary per repeatable definition.
	nextReset map[string]time.Time

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets a custom logger for the tracker.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTracker creates a tracker over the given definition catalog.
func NewTracker(cat *catalog.Catalog, opts ...Option) *Tracker {
	t := &Tracker{
		table:     make(map[model.ProgressKey]*model.Progress),
		catalog:   cat,
		nextReset: make(map[string]time.Time),
		now:       time.Now,
		logger:    logger.Get().Named("progress"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(t)
	}

	// Seed reset boundaries for repeatable definitions.
	now := t.now()
	for _, def := range cat.All() {
		if next := cat.NextReset(def.ID, now); !next.IsZero() {
			t.nextReset[def.ID] = next
		}
	}

	return t
}

// ApplyBatch applies one player's events in arrival order and returns the
// completions they caused, in detection order. An event whose type matches
// no definition is silently ignored.
func (t *Tracker) ApplyBatch(ctx context.Context, playerID string, events []model.GameEvent) []Completion {
	t.mu.Lock()
	defer t.mu.Unlock()

	var completions []Completion
	for _, e := range events {
		for _, def := range t.catalog.ByTrigger(e.Type) {
			key := model.ProgressKey{PlayerID: playerID, AchievementID: def.ID}
			rec, ok := t.table[key]
			if !ok {
				now := t.now()
				rec = &model.Progress{Key: key, StartedAt: now, UpdatedAt: now}
				t.table[key] = rec
			}
			if rec.Completed {
				// Completion is idempotent: later qualifying events are no-ops.
				continue
			}
			completed := rec.Apply(e.Value, def.Target, t.now())
			metrics.RecordProgressUpdate()
			if completed {
				metrics.RecordCompletion()
				completions = append(completions, Completion{
					Definition: def,
					Progress:   *rec,
					At:         rec.CompletedAt,
				})
				t.logger.Info(ctx, "achievement completed",
					logger.String("player", playerID),
					logger.String("achievement", def.ID),
				)
			}
		}
	}

	metrics.UpdateTrackedRecords(len(t.table))
	return completions
}

// Tick clears progress for repeatable definitions whose reset boundary has
// passed, making them earnable again next cycle.
func (t *Tracker) Tick(ctx context.Context, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, boundary := range t.nextReset {
		if now.Before(boundary) {
			continue
		}
		cleared := 0
		for key := range t.table {
			if key.AchievementID == id {
				delete(t.table, key)
				cleared++
			}
		}
		t.nextReset[id] = t.catalog.NextReset(id, now)
		if cleared > 0 {
			t.logger.Info(ctx, "repeatable achievement reset",
				logger.String("achievement", id),
				logger.Int("records_cleared", cleared),
			)
		}
	}
}

// Get returns a copy of one progress record.
func (t *Tracker) Get(key model.ProgressKey) (model.Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.table[key]
	if !ok {
		return model.Progress{}, false
	}
	return *rec, true
}

// PlayerProgress returns copies of all records for one player.
func (t *Tracker) PlayerProgress(playerID string) []model.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []model.Progress
	for key, rec := range t.table {
		if key.PlayerID == playerID {
			out = append(out, *rec)
		}
	}
	return out
}

// IsCompleted reports whether a player has completed an achievement.
func (t *Tracker) IsCompleted(playerID, achievementID string) bool {
	rec, ok := t.Get(model.ProgressKey{PlayerID: playerID, AchievementID: achievementID})
	return ok && rec.Completed
}

// Snapshot returns copies of every record, for persistence.
func (t *Tracker) Snapshot() []model.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.Progress, 0, len(t.table))
	for _, rec := range t.table {
		out = append(out, *rec)
	}
	return out
}

// Restore replaces the table with previously persisted records.
// Called once during stage initialization, before events flow.
func (t *Tracker) Restore(records []model.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.table = make(map[model.ProgressKey]*model.Progress, len(records))
	for i := range records {
		rec := records[i]
		t.table[rec.Key] = &rec
	}
	metrics.UpdateTrackedRecords(len(t.table))
}

// Count returns the number of tracked records.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.table)
}
