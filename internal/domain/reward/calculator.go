// Package reward computes the currency/experience/item payout for one
// achievement completion.
//
// All random draws come from an injected source so computation is
// reproducible under test. Bundle values only feed player totals and
// statistics; they have no gameplay effect of their own.
package reward

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// Default calculator configuration constants.
const (
	defaultBaseCurrency     = 100.0
	defaultBaseExperience   = 50.0
	defaultMaxCurrency      = 10000.0
	defaultMaxExperience    = 5000.0
	defaultCurrencyDivisor  = 100.0
	defaultXPDivisor        = 50.0
	defaultGlobalMultiplier = 1.0
	defaultItemChance       = 0.30
	defaultItemSlots        = 3
	defaultItemDecay        = 0.7
	defaultBonusChance      = 0.05
	defaultBonusMultiplier  = 1.5

	// Weights of the statistics-only total value.
	currencyWeight = 1.0
	xpWeight       = 0.5
)

// RandSource yields independent uniform draws in [0, 1).
// *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// MultiplierSource supplies a per-player reward multiplier from external
// systems (skill tree, research). Injected at construction; never looked up
// at runtime.
type MultiplierSource interface {
	RewardMultiplier(ctx context.Context, playerID string) float64
}

// rarityMultipliers scale base payouts per rarity grade.
var rarityMultipliers = map[model.Rarity]float64{
	model.RarityCommon:    1.0,
	model.RarityUncommon:  1.25,
	model.RarityRare:      1.5,
	model.RarityEpic:      2.0,
	model.RarityLegendary: 3.0,
}

// categoryMultipliers scale base payouts per gameplay area.
var categoryMultipliers = map[model.Category]float64{
	model.CategoryCultivation: 1.0,
	model.CategoryHarvest:     1.1,
	model.CategoryGenetics:    1.3,
	model.CategoryEconomy:     1.2,
	model.CategoryFacility:    1.15,
	model.CategoryResearch:    1.25,
}

// categoryItemBoost raises the item-roll chance for categories whose
// category roll succeeds.
var categoryItemBoost = map[model.Category]float64{
	model.CategoryGenetics: 0.15,
	model.CategoryResearch: 0.10,
	model.CategoryHarvest:  0.05,
}

// itemValues prices item rewards for the statistics-only total, per rarity.
var itemValues = map[model.Rarity]float64{
	model.RarityCommon:    10,
	model.RarityUncommon:  25,
	model.RarityRare:      60,
	model.RarityEpic:      150,
	model.RarityLegendary: 400,
}

// categoryItems maps each category to its drop pool.
var categoryItems = map[model.Category][]string{
	model.CategoryCultivation: {"seed_pack", "nutrient_mix", "grow_lamp"},
	model.CategoryHarvest:     {"trim_kit", "curing_jar", "drying_rack"},
	model.CategoryGenetics:    {"gene_splice", "rare_seed", "stabilizer"},
	model.CategoryEconomy:     {"market_permit", "ledger", "price_chart"},
	model.CategoryFacility:    {"blueprint", "hvac_part", "irrigation_kit"},
	model.CategoryResearch:    {"lab_notes", "sample_kit", "catalyst"},
}

// Calculator computes reward bundles for completions.
type Calculator struct {
	baseCurrency     float64
	baseExperience   float64
	maxCurrency      float64
	maxExperience    float64
	currencyDivisor  float64
	xpDivisor        float64
	globalMultiplier float64
	itemChance       float64
	itemSlots        int
	itemDecay        float64
	bonusChance      float64
	bonusMultiplier  float64

	rng        RandSource
	multiplier MultiplierSource
	now        func() time.Time
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithRandSource sets the random source. Required for reproducible tests.
func WithRandSource(rng RandSource) Option {
	return func(c *Calculator) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// WithMultiplierSource sets the external per-player multiplier source.
func WithMultiplierSource(src MultiplierSource) Option {
	return func(c *Calculator) {
		if src != nil {
			c.multiplier = src
		}
	}
}

// WithBasePayout sets the base currency and experience amounts.
func WithBasePayout(currency, experience float64) Option {
	return func(c *Calculator) {
		if currency > 0 {
			c.baseCurrency = currency
		}
		if experience > 0 {
			c.baseExperience = experience
		}
	}
}

// WithPayoutCaps sets the currency and experience caps.
func WithPayoutCaps(maxCurrency, maxExperience float64) Option {
	return func(c *Calculator) {
		if maxCurrency > 0 {
			c.maxCurrency = maxCurrency
		}
		if maxExperience > 0 {
			c.maxExperience = maxExperience
		}
	}
}

// WithGlobalMultiplier sets a deployment-wide payout multiplier.
func WithGlobalMultiplier(m float64) Option {
	return func(c *Calculator) {
		if m > 0 {
			c.globalMultiplier = m
		}
	}
}

// WithItemRolls sets the item slot count, base chance and per-slot decay.
func WithItemRolls(slots int, chance, decay float64) Option {
	return func(c *Calculator) {
		if slots >= 0 {
			c.itemSlots = slots
		}
		if chance >= 0 && chance <= 1 {
			c.itemChance = chance
		}
		if decay > 0 && decay <= 1 {
			c.itemDecay = decay
		}
	}
}

// WithBonusRoll sets the bonus probability base and payout multiplier.
func WithBonusRoll(chance, multiplier float64) Option {
	return func(c *Calculator) {
		if chance >= 0 {
			c.bonusChance = chance
		}
		if multiplier > 1 {
			c.bonusMultiplier = multiplier
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCalculator creates a calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		baseCurrency:     defaultBaseCurrency,
		baseExperience:   defaultBaseExperience,
		maxCurrency:      defaultMaxCurrency,
		maxExperience:    defaultMaxExperience,
		currencyDivisor:  defaultCurrencyDivisor,
		xpDivisor:        defaultXPDivisor,
		globalMultiplier: defaultGlobalMultiplier,
		itemChance:       defaultItemChance,
		itemSlots:        defaultItemSlots,
		itemDecay:        defaultItemDecay,
		bonusChance:      defaultBonusChance,
		bonusMultiplier:  defaultBonusMultiplier,
		now:              time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compute builds the reward bundle for one completion.
// Deterministic base amounts, probabilistic item slots and bonus roll.
func (c *Calculator) Compute(ctx context.Context, def *model.AchievementDefinition, playerID string) (model.RewardBundle, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRewardLatency(float64(time.Since(start).Milliseconds()))
	}()

	if def == nil {
		metrics.RecordRewardError()
		return model.RewardBundle{}, ErrNilDefinition
	}
	if c.rng == nil {
		metrics.RecordRewardError()
		return model.RewardBundle{}, ErrNoRandSource
	}
	if err := def.Validate(); err != nil {
		metrics.RecordRewardError()
		return model.RewardBundle{}, fmt.Errorf("reward computation rejected definition: %w", err)
	}

	rarityMult := rarityMultipliers[def.Rarity]
	categoryMult, ok := categoryMultipliers[def.Category]
	if !ok {
		categoryMult = 1.0
	}
	playerMult := 1.0
	if c.multiplier != nil {
		if m := c.multiplier.RewardMultiplier(ctx, playerID); m > 0 {
			playerMult = m
		}
	}

	points := float64(def.Points)
	currency := clamp(c.baseCurrency*(points/c.currencyDivisor)*rarityMult*categoryMult*c.globalMultiplier*playerMult, 0, c.maxCurrency)
	xp := clamp(c.baseExperience*(points/c.xpDivisor)*rarityMult*categoryMult*c.globalMultiplier*playerMult, 0, c.maxExperience)

	items := c.rollItems(def)

	// Bonus roll. The combined probability can exceed 1 for legendary
	// definitions in boosted categories; it is clamped as a policy choice.
	bonusProb := clamp(c.bonusChance*rarityMult*categoryMult, 0, 1)
	bonus := c.rng.Float64() < bonusProb
	if bonus {
		currency = clamp(currency*c.bonusMultiplier, 0, c.maxCurrency)
		xp = clamp(xp*c.bonusMultiplier, 0, c.maxExperience)
		items = append(items, c.rollItem(def, 1))
		metrics.RecordRewardBonus()
	}

	bundle := model.RewardBundle{
		ID:            uuid.NewString(),
		AchievementID: def.ID,
		PlayerID:      playerID,
		Currency:      int64(math.Round(currency)),
		Experience:    int64(math.Round(xp)),
		Items:         items,
		Bonus:         bonus,
		ComputedAt:    c.now(),
	}
	bundle.TotalValue = totalValue(bundle)

	metrics.RecordRewardComputed()
	return bundle, nil
}

// rollItems rolls each item slot independently, decaying the chance after
// every success to avoid unbounded stacking.
func (c *Calculator) rollItems(def *model.AchievementDefinition) []model.ItemReward {
	chance := clamp(c.itemChance*rarityMultipliers[def.Rarity], 0, 1)
	if boost, boosted := categoryItemBoost[def.Category]; boosted {
		if c.rng.Float64() < 0.5 {
			chance = clamp(chance+boost, 0, 1)
		}
	}

	var items []model.ItemReward
	for slot := 0; slot < c.itemSlots; slot++ {
		if c.rng.Float64() >= chance {
			continue
		}
		items = append(items, c.rollItem(def, 1+int(c.rng.Float64()*3)))
		chance *= c.itemDecay
	}
	return items
}

// rollItem picks an item from the category pool.
func (c *Calculator) rollItem(def *model.AchievementDefinition, quantity int) model.ItemReward {
	pool := categoryItems[def.Category]
	if len(pool) == 0 {
		pool = []string{"supply_crate"}
	}
	idx := int(c.rng.Float64() * float64(len(pool)))
	if idx >= len(pool) {
		idx = len(pool) - 1
	}
	if quantity < 1 {
		quantity = 1
	}
	return model.ItemReward{
		ID:       pool[idx],
		Quantity: quantity,
		Rarity:   def.Rarity,
	}
}

// totalValue is the statistics-only weighted bundle value.
func totalValue(b model.RewardBundle) float64 {
	v := float64(b.Currency)*currencyWeight + float64(b.Experience)*xpWeight
	for _, item := range b.Items {
		v += itemValues[item.Rarity] * float64(item.Quantity)
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
