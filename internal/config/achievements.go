package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

// achievementDef is the file wire shape for one achievement definition.
// Kept separate from the domain type so the config format can evolve
// without touching the model.
type achievementDef struct {
	ID        string  `koanf:"id"`
	Name      string  `koanf:"name"`
	Category  string  `koanf:"category"`
	Rarity    string  `koanf:"rarity"`
	Trigger   string  `koanf:"trigger"`
	Target    float64 `koanf:"target"`
	Points    int     `koanf:"points"`
	Secret    bool    `koanf:"secret"`
	ResetCron string  `koanf:"reset_cron"`
}

// LoadAchievements reads extra achievement definitions from a YAML file of
// the form:
//
//	achievements:
//	  - id: weekly_hustle
//	    name: Weekly Hustle
//	    category: economy
//	    rarity: uncommon
//	    trigger: product_sold
//	    target: 25
//	    points: 40
//	    reset_cron: "0 0 * * 1"
//
// Definition-level validation (target > 0, known rarity, cron syntax) is the
// catalog's job; this only decodes the file.
func LoadAchievements(path string) ([]model.AchievementDefinition, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	var raw []achievementDef
	if err := k.UnmarshalWithConf("achievements", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	defs := make([]model.AchievementDefinition, 0, len(raw))
	for _, d := range raw {
		defs = append(defs, model.AchievementDefinition{
			ID:        d.ID,
			Name:      d.Name,
			Category:  model.Category(d.Category),
			Rarity:    model.Rarity(d.Rarity),
			Trigger:   d.Trigger,
			Target:    d.Target,
			Points:    d.Points,
			Secret:    d.Secret,
			ResetCron: d.ResetCron,
		})
	}
	return defs, nil
}
