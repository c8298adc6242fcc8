package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/chimeralabs/accolade/internal/app"
	"github.com/chimeralabs/accolade/internal/adapters/repository"
	"github.com/chimeralabs/accolade/internal/domain/bus"
	"github.com/chimeralabs/accolade/internal/domain/model"
)

func TestService_IngestionBackpressure(t *testing.T) {
	Convey("Given a service with queue capacity 100 and an injected bus", t, func() {
		ctx := context.Background()
		b := bus.New()
		svc := service.New(fastOptions(
			service.WithEventBus(b),
			service.WithQueueCapacity(100),
			service.WithBatchDrainLimit(1000),
		)...)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When 150 events burst onto the bus without a tick", func() {
			for i := 0; i < 150; i++ {
				b.Publish(ctx, model.NewGameEvent("plant_harvested", fmt.Sprintf("player-%d", i), 1, nil))
			}

			Convey("Then exactly the capacity is admitted and the rest dropped", func() {
				stats := svc.GetStats()
				So(stats["queueLength"], ShouldEqual, 100)
				So(stats["queueDropped"], ShouldEqual, uint64(50))
			})

			Convey("And the admitted events are processed on the next tick", func() {
				svc.Tick(ctx, 10*time.Millisecond)

				stats := svc.GetStats()
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["trackedRecords"], ShouldBeGreaterThan, 0)

				// Each admitted player completes their first harvest.
				entry, err := svc.GetProgress(ctx, "player-0", "first_harvest")
				So(err, ShouldBeNil)
				So(entry.Completed, ShouldBeTrue)
			})
		})
	})
}

func TestService_BlockedAndRateLimited(t *testing.T) {
	Convey("Given a service with a blocked event type and an injected bus", t, func() {
		ctx := context.Background()
		b := bus.New()
		svc := service.New(fastOptions(
			service.WithEventBus(b),
			service.WithBlockedEventTypes("debug_event"),
		)...)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When blocked and admitted events are published", func() {
			b.Publish(ctx, model.NewGameEvent("debug_event", "player-1", 1, nil))
			b.Publish(ctx, model.NewGameEvent("plant_harvested", "player-1", 1, nil))

			Convey("Then only the admitted event reaches the queue", func() {
				stats := svc.GetStats()
				So(stats["queueLength"], ShouldEqual, 1)
				So(stats["eventsBlocked"], ShouldEqual, uint64(1))
				So(stats["eventsAdmitted"], ShouldEqual, uint64(1))
			})
		})
	})

	Convey("Given a service with a low per-pair rate limit", t, func() {
		ctx := context.Background()
		b := bus.New()
		svc := service.New(
			service.WithEventBus(b),
			service.WithBatchInterval(time.Millisecond),
			service.WithRateLimit(1), // one admission per pair per second
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When one pair bursts while another stays distinct", func() {
			b.Publish(ctx, model.NewGameEvent("plant_harvested", "player-1", 1, nil))
			b.Publish(ctx, model.NewGameEvent("plant_harvested", "player-1", 1, nil))
			b.Publish(ctx, model.NewGameEvent("plant_harvested", "player-2", 1, nil))

			Convey("Then the burst is limited per pair, not globally", func() {
				stats := svc.GetStats()
				So(stats["eventsAdmitted"], ShouldEqual, uint64(2))
				So(stats["eventsRateLimited"], ShouldEqual, uint64(1))
			})
		})
	})
}

func TestService_PersistenceRoundTrip(t *testing.T) {
	Convey("Given a service backed by a file store", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "snapshot.json")

		store, err := repository.NewFileStore(path)
		So(err, ShouldBeNil)

		svc := service.New(fastOptions(service.WithStore(store))...)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When progress accrues and the service restarts", func() {
			So(svc.RecordEvent(ctx, model.NewGameEvent("plant_harvested", "player-1", 1, nil)), ShouldBeNil)
			svc.Tick(ctx, 10*time.Millisecond)
			svc.Stop() // final save happens on shutdown

			reopened, err := repository.NewFileStore(path)
			So(err, ShouldBeNil)
			restarted := service.New(fastOptions(service.WithStore(reopened))...)
			So(restarted.Start(ctx), ShouldBeNil)
			defer restarted.Stop()

			Convey("Then completed progress survives the restart", func() {
				entry, err := restarted.GetProgress(ctx, "player-1", "first_harvest")
				So(err, ShouldBeNil)
				So(entry.Completed, ShouldBeTrue)
			})

			Convey("Then recognition is rebuilt from the snapshot", func() {
				profile, ok := restarted.GetRecognition(ctx, "player-1")
				So(ok, ShouldBeTrue)
				So(profile.CompletedCount, ShouldEqual, 1)
				So(profile.TotalPoints, ShouldBeGreaterThan, 0)
			})

			Convey("Then the reward history survives the restart", func() {
				history, err := restarted.GetRewardHistory(ctx, "player-1", 10)
				So(err, ShouldBeNil)
				So(history, ShouldHaveLength, 1)
			})

			Convey("And a completed achievement stays completed after replayed events", func() {
				time.Sleep(2 * time.Millisecond)
				So(restarted.RecordEvent(ctx, model.NewGameEvent("plant_harvested", "player-1", 1, nil)), ShouldBeNil)
				restarted.Tick(ctx, 10*time.Millisecond)

				profile, _ := restarted.GetRecognition(ctx, "player-1")
				So(profile.CompletedCount, ShouldEqual, 1)
			})
		})
	})
}

func TestService_ForceSave(t *testing.T) {
	Convey("Given a started service with a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(fastOptions(service.WithStore(store))...)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a save is forced", func() {
			So(svc.RecordEvent(ctx, model.NewGameEvent("plant_harvested", "player-1", 1, nil)), ShouldBeNil)
			svc.Tick(ctx, 10*time.Millisecond)

			So(svc.ForceSave(ctx), ShouldBeNil)
			svc.Tick(ctx, time.Millisecond)

			Convey("Then the snapshot is in the store", func() {
				snap, err := store.LoadSnapshot(ctx)
				So(err, ShouldBeNil)
				So(len(snap.Progress), ShouldBeGreaterThan, 0)
			})
		})
	})
}
