package catalog

import "github.com/chimeralabs/accolade/internal/domain/model"

// defaultDefinitions is the built-in achievement set. Deployments normally
// extend or replace these through configuration.
func defaultDefinitions() []model.AchievementDefinition {
	return []model.AchievementDefinition{
		{
			ID:       "first_harvest",
			Name:     "First Harvest",
			Category: model.CategoryHarvest,
			Rarity:   model.RarityCommon,
			Trigger:  "plant_harvested",
			Target:   1,
			Points:   10,
		},
		{
			ID:       "green_thumb",
			Name:     "Green Thumb",
			Category: model.CategoryCultivation,
			Rarity:   model.RarityCommon,
			Trigger:  "plant_grown",
			Target:   10,
			Points:   15,
		},
		{
			ID:       "master_grower",
			Name:     "Master Grower",
			Category: model.CategoryCultivation,
			Rarity:   model.RarityRare,
			Trigger:  "plant_grown",
			Target:   100,
			Points:   50,
		},
		{
			ID:       "harvest_century",
			Name:     "Centennial Harvest",
			Category: model.CategoryHarvest,
			Rarity:   model.RarityEpic,
			Trigger:  "plant_harvested",
			Target:   100,
			Points:   100,
		},
		{
			ID:       "strain_pioneer",
			Name:     "Strain Pioneer",
			Category: model.CategoryGenetics,
			Rarity:   model.RarityUncommon,
			Trigger:  "strain_bred",
			Target:   1,
			Points:   25,
		},
		{
			ID:       "gene_architect",
			Name:     "Gene Architect",
			Category: model.CategoryGenetics,
			Rarity:   model.RarityLegendary,
			Trigger:  "strain_bred",
			Target:   50,
			Points:   250,
		},
		{
			ID:       "first_sale",
			Name:     "Open for Business",
			Category: model.CategoryEconomy,
			Rarity:   model.RarityCommon,
			Trigger:  "product_sold",
			Target:   1,
			Points:   10,
		},
		{
			ID:       "high_roller",
			Name:     "High Roller",
			Category: model.CategoryEconomy,
			Rarity:   model.RarityEpic,
			Trigger:  "currency_earned",
			Target:   1_000_000,
			Points:   150,
		},
		{
			ID:       "daily_tender",
			Name:     "Daily Tender",
			Category: model.CategoryCultivation,
			Rarity:   model.RarityCommon,
			Trigger:  "plant_watered",
			Target:   5,
			Points:   5,
			// Resets at midnight so it can be earned once per day.
			ResetCron: "0 0 * * *",
		},
		{
			ID:       "facility_mogul",
			Name:     "Facility Mogul",
			Category: model.CategoryFacility,
			Rarity:   model.RarityRare,
			Trigger:  "room_built",
			Target:   10,
			Points:   75,
		},
		{
			ID:       "lab_rat",
			Name:     "Lab Rat",
			Category: model.CategoryResearch,
			Rarity:   model.RarityUncommon,
			Trigger:  "research_completed",
			Target:   5,
			Points:   30,
		},
		{
			ID:       "hidden_alchemist",
			Name:     "Hidden Alchemist",
			Category: model.CategoryResearch,
			Rarity:   model.RarityLegendary,
			Trigger:  "rare_compound_found",
			Target:   1,
			Points:   200,
			Secret:   true,
		},
	}
}
