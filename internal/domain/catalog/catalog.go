// Package catalog provides O(1) read-only lookups for achievement definitions.
//
// The catalog is built once at stage initialization from configured
// definitions; all lookups after that are read-only and safe for concurrent
// use without locking.
package catalog

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

// Catalog indexes achievement definitions by id and by trigger event type.
type Catalog struct {
	byID      map[string]*model.AchievementDefinition
	byTrigger map[string][]*model.AchievementDefinition
	ordered   []*model.AchievementDefinition

	cronParser cron.Parser
	schedules  map[string]cron.Schedule // definition id -> parsed reset schedule
}

// Option applies a configuration option to the Catalog.
type Option func(*builder)

type builder struct {
	defs []model.AchievementDefinition
}

// WithDefinitions adds definitions to the catalog.
func WithDefinitions(defs ...model.AchievementDefinition) Option {
	return func(b *builder) {
		b.defs = append(b.defs, defs...)
	}
}

// WithDefaults adds the built-in definition set.
func WithDefaults() Option {
	return func(b *builder) {
		b.defs = append(b.defs, defaultDefinitions()...)
	}
}

// New builds and validates a catalog.
// Returns an error on a duplicate id or an invalid definition.
func New(opts ...Option) (*Catalog, error) {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	c := &Catalog{
		byID:       make(map[string]*model.AchievementDefinition, len(b.defs)),
		byTrigger:  make(map[string][]*model.AchievementDefinition, len(b.defs)),
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		schedules:  make(map[string]cron.Schedule),
	}

	for i := range b.defs {
		def := b.defs[i]
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("invalid definition: %w", err)
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, fmt.Errorf("duplicate definition id: %s", def.ID)
		}
		if def.ResetCron != "" {
			sched, err := c.cronParser.Parse(def.ResetCron)
			if err != nil {
				return nil, fmt.Errorf("definition %s: invalid reset_cron %q: %w", def.ID, def.ResetCron, err)
			}
			c.schedules[def.ID] = sched
		}
		c.byID[def.ID] = &def
		c.byTrigger[def.Trigger] = append(c.byTrigger[def.Trigger], &def)
		c.ordered = append(c.ordered, &def)
	}

	return c, nil
}

// ByID retrieves a definition by its unique id. Returns nil if unknown.
func (c *Catalog) ByID(id string) *model.AchievementDefinition {
	return c.byID[id]
}

// ByTrigger retrieves all definitions advanced by an event type.
// Multiple achievements can share a trigger. Returns nil when none match,
// which is expected: not every event maps to an achievement.
func (c *Catalog) ByTrigger(eventType string) []*model.AchievementDefinition {
	return c.byTrigger[eventType]
}

// All returns every definition in load order.
func (c *Catalog) All() []*model.AchievementDefinition {
	out := make([]*model.AchievementDefinition, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Visible returns definitions listable for a player: non-secret ones plus
// secret ones the player has already completed, per the completed predicate.
func (c *Catalog) Visible(completed func(id string) bool) []*model.AchievementDefinition {
	out := make([]*model.AchievementDefinition, 0, len(c.ordered))
	for _, def := range c.ordered {
		if def.Secret && (completed == nil || !completed(def.ID)) {
			continue
		}
		out = append(out, def)
	}
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// NextReset returns the next reset time after now for a repeatable
// definition, or the zero time when the definition has no reset schedule.
func (c *Catalog) NextReset(id string, now time.Time) time.Time {
	sched, ok := c.schedules[id]
	if !ok {
		return time.Time{}
	}
	return sched.Next(now)
}
