// Package recognition updates player profiles (badges, tiers, prestige) in
// response to completions. A downstream consumer of the pipeline, off the
// critical completion path.
package recognition

import (
	"context"
	"sync"
	"time"

	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/pkg/logger"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// Tier is a player's overall recognition level, from lifetime points.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// tierThresholds maps minimum lifetime points to tiers, checked in order.
var tierThresholds = []struct {
	points int
	tier   Tier
}{
	{1500, TierDiamond},
	{750, TierPlatinum},
	{300, TierGold},
	{100, TierSilver},
	{0, TierBronze},
}

// badgeThresholds are the per-category completion counts that earn a badge
// level. Level n requires badgeThresholds[n-1] completions.
var badgeThresholds = []int{3, 10, 25}

// Profile is one player's recognition state.
type Profile struct {
	PlayerID       string
	TotalPoints    int
	CompletedCount int
	Tier           Tier
	Prestige       int // legendary completions
	Badges         map[model.Category]int
	UpdatedAt      time.Time

	// categoryCounts backs badge-level checks; not exposed on copies.
	categoryCounts map[model.Category]int
}

// Tracker maintains recognition profiles. Single writer: only the
// pipeline's completion fan-out calls RecordCompletion.
type Tracker struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	now      func() time.Time
	logger   logger.Logger
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

// NewTracker creates a recognition tracker with configuration options.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		profiles: make(map[string]*Profile),
		now:      time.Now,
		logger:   logger.Get().Named("recognition"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// RecordCompletion applies one completion to the player's profile.
// Completions within a batch arrive in submission order.
func (t *Tracker) RecordCompletion(ctx context.Context, def *model.AchievementDefinition, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.profiles[playerID]
	if !ok {
		p = &Profile{
			PlayerID: playerID,
			Tier:     TierBronze,
			Badges:   make(map[model.Category]int),
		}
		t.profiles[playerID] = p
	}

	p.TotalPoints += def.Points
	p.CompletedCount++
	p.UpdatedAt = t.now()

	if def.Rarity == model.RarityLegendary {
		p.Prestige++
	}

	categoryCount := t.categoryCountLocked(playerID, def.Category)
	newLevel := badgeLevel(categoryCount)
	if newLevel > p.Badges[def.Category] {
		p.Badges[def.Category] = newLevel
		metrics.RecordBadgeAwarded()
		t.logger.Info(ctx, "badge awarded",
			logger.String("player", playerID),
			logger.String("category", string(def.Category)),
			logger.Int("level", newLevel),
		)
	}

	if next := tierFor(p.TotalPoints); next != p.Tier {
		p.Tier = next
		metrics.RecordTierPromotion()
		t.logger.Info(ctx, "tier promotion",
			logger.String("player", playerID),
			logger.String("tier", string(next)),
		)
	}
}

// categoryCountLocked counts a player's completions per category. The count
// is carried in the profile rather than re-derived from the progress table,
// keeping this stage read-independent of the tracker's ownership.
func (t *Tracker) categoryCountLocked(playerID string, category model.Category) int {
	p := t.profiles[playerID]
	if p.categoryCounts == nil {
		p.categoryCounts = make(map[model.Category]int)
	}
	p.categoryCounts[category]++
	return p.categoryCounts[category]
}

// Profile returns a copy of one player's profile.
func (t *Tracker) Profile(playerID string) (Profile, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.profiles[playerID]
	if !ok {
		return Profile{}, false
	}
	out := *p
	out.Badges = make(map[model.Category]int, len(p.Badges))
	for k, v := range p.Badges {
		out.Badges[k] = v
	}
	out.categoryCounts = nil
	return out, true
}

// Count returns the number of tracked profiles.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.profiles)
}

func badgeLevel(completions int) int {
	level := 0
	for _, threshold := range badgeThresholds {
		if completions >= threshold {
			level++
		}
	}
	return level
}

func tierFor(points int) Tier {
	for _, t := range tierThresholds {
		if points >= t.points {
			return t.tier
		}
	}
	return TierBronze
}
