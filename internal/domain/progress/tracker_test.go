package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/chimeralabs/accolade/internal/domain/catalog"
	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/internal/domain/progress"
	"github.com/chimeralabs/accolade/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func testCatalog() *catalog.Catalog {
	cat, err := catalog.New(catalog.WithDefinitions(
		model.AchievementDefinition{
			ID:       "first_harvest",
			Name:     "First Harvest",
			Category: model.CategoryHarvest,
			Rarity:   model.RarityCommon,
			Trigger:  "plant_harvested",
			Target:   1,
			Points:   10,
		},
		model.AchievementDefinition{
			ID:       "harvest_ten",
			Name:     "Ten Harvests",
			Category: model.CategoryHarvest,
			Rarity:   model.RarityUncommon,
			Trigger:  "plant_harvested",
			Target:   10,
			Points:   25,
		},
		model.AchievementDefinition{
			ID:        "daily_tender",
			Name:      "Daily Tender",
			Category:  model.CategoryCultivation,
			Rarity:    model.RarityCommon,
			Trigger:   "plant_watered",
			Target:    5,
			Points:    5,
			ResetCron: "0 0 * * *",
		},
	))
	if err != nil {
		panic(err)
	}
	return cat
}

func TestTrackerCompletion(t *testing.T) {
	Convey("Given a tracker over a small catalog", t, func() {
		tr := progress.NewTracker(testCatalog())
		ctx := context.Background()

		Convey("When one matching event reaches the target", func() {
			completions := tr.ApplyBatch(ctx, "p1", []model.GameEvent{
				{Type: "plant_harvested", PlayerID: "p1", Value: 1},
			})

			Convey("Then exactly one completion is emitted for the reached target", func() {
				So(len(completions), ShouldEqual, 1)
				So(completions[0].Definition.ID, ShouldEqual, "first_harvest")
				So(completions[0].Progress.Completed, ShouldBeTrue)
			})

			Convey("And the sibling achievement with a higher target advanced without completing", func() {
				rec, ok := tr.Get(model.ProgressKey{PlayerID: "p1", AchievementID: "harvest_ten"})
				So(ok, ShouldBeTrue)
				So(rec.Current, ShouldEqual, 1)
				So(rec.Completed, ShouldBeFalse)
			})
		})

		Convey("When events keep arriving after completion", func() {
			tr.ApplyBatch(ctx, "p1", []model.GameEvent{
				{Type: "plant_harvested", PlayerID: "p1", Value: 1},
			})
			again := tr.ApplyBatch(ctx, "p1", []model.GameEvent{
				{Type: "plant_harvested", PlayerID: "p1", Value: 5},
				{Type: "plant_harvested", PlayerID: "p1", Value: 5},
			})

			Convey("Then no second completion is emitted for the completed pair", func() {
				for _, c := range again {
					So(c.Definition.ID, ShouldNotEqual, "first_harvest")
				}
			})

			Convey("And the completed record stays frozen at its target", func() {
				rec, _ := tr.Get(model.ProgressKey{PlayerID: "p1", AchievementID: "first_harvest"})
				So(rec.Current, ShouldEqual, 1)
			})
		})

		Convey("When an overshooting value crosses the target", func() {
			tr.ApplyBatch(ctx, "p2", []model.GameEvent{
				{Type: "plant_harvested", PlayerID: "p2", Value: 7},
				{Type: "plant_harvested", PlayerID: "p2", Value: 7},
			})

			Convey("Then the stored value is frozen at the target, never beyond", func() {
				rec, _ := tr.Get(model.ProgressKey{PlayerID: "p2", AchievementID: "harvest_ten"})
				So(rec.Completed, ShouldBeTrue)
				So(rec.Current, ShouldEqual, 10)
			})
		})

		Convey("When an event matches no definition", func() {
			completions := tr.ApplyBatch(ctx, "p1", []model.GameEvent{
				{Type: "unknown_event", PlayerID: "p1", Value: 1},
			})

			Convey("Then it is silently ignored", func() {
				So(completions, ShouldBeEmpty)
				So(tr.Count(), ShouldEqual, 0)
			})
		})

		Convey("When two players progress independently", func() {
			tr.ApplyBatch(ctx, "p1", []model.GameEvent{{Type: "plant_harvested", PlayerID: "p1", Value: 4}})
			tr.ApplyBatch(ctx, "p2", []model.GameEvent{{Type: "plant_harvested", PlayerID: "p2", Value: 9}})

			Convey("Then their records do not interfere", func() {
				r1, _ := tr.Get(model.ProgressKey{PlayerID: "p1", AchievementID: "harvest_ten"})
				r2, _ := tr.Get(model.ProgressKey{PlayerID: "p2", AchievementID: "harvest_ten"})
				So(r1.Current, ShouldEqual, 4)
				So(r2.Current, ShouldEqual, 9)
			})
		})
	})
}

func TestTrackerMonotonicity(t *testing.T) {
	Convey("Given a tracker accumulating values", t, func() {
		tr := progress.NewTracker(testCatalog())
		ctx := context.Background()

		Convey("When values arrive one by one", func() {
			var previous float64
			for i := 0; i < 9; i++ {
				tr.ApplyBatch(ctx, "p1", []model.GameEvent{
					{Type: "plant_harvested", PlayerID: "p1", Value: 1},
				})
				rec, _ := tr.Get(model.ProgressKey{PlayerID: "p1", AchievementID: "harvest_ten"})
				So(rec.Current, ShouldBeGreaterThanOrEqualTo, previous)
				previous = rec.Current
			}

			Convey("Then the value never decreased and has not completed early", func() {
				rec, _ := tr.Get(model.ProgressKey{PlayerID: "p1", AchievementID: "harvest_ten"})
				So(rec.Current, ShouldEqual, 9)
				So(rec.Completed, ShouldBeFalse)
			})
		})

		Convey("When a negative-value event arrives below the HTTP boundary", func() {
			tr.ApplyBatch(ctx, "p1", []model.GameEvent{
				{Type: "plant_harvested", PlayerID: "p1", Value: 5},
			})
			completions := tr.ApplyBatch(ctx, "p1", []model.GameEvent{
				{Type: "plant_harvested", PlayerID: "p1", Value: -4},
			})

			Convey("Then stored progress is unchanged", func() {
				So(completions, ShouldBeEmpty)
				rec, _ := tr.Get(model.ProgressKey{PlayerID: "p1", AchievementID: "harvest_ten"})
				So(rec.Current, ShouldEqual, 5)
				So(rec.Completed, ShouldBeFalse)
			})
		})
	})
}

func TestTrackerSnapshotRestore(t *testing.T) {
	Convey("Given a tracker with some state", t, func() {
		tr := progress.NewTracker(testCatalog())
		ctx := context.Background()
		tr.ApplyBatch(ctx, "p1", []model.GameEvent{{Type: "plant_harvested", PlayerID: "p1", Value: 3}})

		Convey("When snapshotting and restoring into a fresh tracker", func() {
			snap := tr.Snapshot()
			fresh := progress.NewTracker(testCatalog())
			fresh.Restore(snap)

			Convey("Then the restored state matches", func() {
				So(fresh.Count(), ShouldEqual, tr.Count())
				rec, ok := fresh.Get(model.ProgressKey{PlayerID: "p1", AchievementID: "harvest_ten"})
				So(ok, ShouldBeTrue)
				So(rec.Current, ShouldEqual, 3)
			})

			Convey("And completions remain idempotent across restore", func() {
				fresh.ApplyBatch(ctx, "p1", []model.GameEvent{{Type: "plant_harvested", PlayerID: "p1", Value: 10}})
				completions := fresh.ApplyBatch(ctx, "p1", []model.GameEvent{{Type: "plant_harvested", PlayerID: "p1", Value: 10}})
				So(completions, ShouldBeEmpty)
			})
		})
	})
}

func TestTrackerRepeatableReset(t *testing.T) {
	Convey("Given a repeatable achievement with a daily reset", t, func() {
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		tr := progress.NewTracker(testCatalog(), progress.WithClock(clock))
		ctx := context.Background()

		Convey("When the player completes it and the reset boundary passes", func() {
			first := tr.ApplyBatch(ctx, "p1", []model.GameEvent{
				{Type: "plant_watered", PlayerID: "p1", Value: 5},
			})
			So(len(first), ShouldEqual, 1)

			// Next midnight.
			tr.Tick(ctx, time.Date(2026, 3, 11, 0, 0, 1, 0, time.UTC))

			Convey("Then the achievement can be earned again", func() {
				second := tr.ApplyBatch(ctx, "p1", []model.GameEvent{
					{Type: "plant_watered", PlayerID: "p1", Value: 5},
				})
				So(len(second), ShouldEqual, 1)
				So(second[0].Definition.ID, ShouldEqual, "daily_tender")
			})
		})

		Convey("When the boundary has not passed", func() {
			tr.ApplyBatch(ctx, "p1", []model.GameEvent{
				{Type: "plant_watered", PlayerID: "p1", Value: 5},
			})
			tr.Tick(ctx, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))

			Convey("Then completion stays idempotent", func() {
				again := tr.ApplyBatch(ctx, "p1", []model.GameEvent{
					{Type: "plant_watered", PlayerID: "p1", Value: 5},
				})
				So(again, ShouldBeEmpty)
			})
		})
	})
}
