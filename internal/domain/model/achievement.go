package model

import (
	"errors"
	"fmt"
	"strings"
)

// Rarity grades an achievement and drives reward multipliers and
// notification priority.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Priority returns the notification priority tier for the rarity.
// Higher values are promoted first.
func (r Rarity) Priority() int {
	switch r {
	case RarityLegendary:
		return 5
	case RarityEpic:
		return 4
	case RarityRare:
		return 3
	case RarityUncommon:
		return 2
	case RarityCommon:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the rarity is one of the known grades.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	default:
		return false
	}
}

// ParseRarity parses a rarity name, case-insensitively.
func ParseRarity(s string) (Rarity, error) {
	r := Rarity(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown rarity: %q", s)
	}
	return r, nil
}

// Category groups achievements by gameplay area.
type Category string

const (
	CategoryCultivation Category = "cultivation"
	CategoryHarvest     Category = "harvest"
	CategoryGenetics    Category = "genetics"
	CategoryEconomy     Category = "economy"
	CategoryFacility    Category = "facility"
	CategoryResearch    Category = "research"
)

// AchievementDefinition is the immutable description of an unlockable
// milestone. Loaded once at startup and shared read-only across stages.
type AchievementDefinition struct {
	ID       string   // globally unique
	Name     string   // display name
	Category Category // gameplay area
	Rarity   Rarity
	Trigger  string  // event type that advances progress
	Target   float64 // accumulated value required for completion; > 0
	Points   int     // recognition points granted on completion
	Secret   bool    // hidden from listings until completed

	// ResetCron, when set, makes the achievement repeatable: progress for it
	// is cleared on the schedule so it can be earned again next cycle.
	ResetCron string
}

// Validate checks the definition invariants.
func (d *AchievementDefinition) Validate() error {
	switch {
	case strings.TrimSpace(d.ID) == "":
		return errors.New("definition id must not be empty")
	case strings.TrimSpace(d.Trigger) == "":
		return fmt.Errorf("definition %s: trigger must not be empty", d.ID)
	case d.Target <= 0:
		return fmt.Errorf("definition %s: target must be > 0", d.ID)
	case !d.Rarity.Valid():
		return fmt.Errorf("definition %s: unknown rarity %q", d.ID, d.Rarity)
	case d.Points < 0:
		return fmt.Errorf("definition %s: points must not be negative", d.ID)
	}
	return nil
}
