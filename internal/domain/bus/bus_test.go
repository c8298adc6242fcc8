package bus_test

import (
	"context"
	"sync"
	"testing"

	"github.com/chimeralabs/accolade/internal/domain/bus"
	"github.com/chimeralabs/accolade/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSubscribe(t *testing.T) {
	Convey("Given an event bus", t, func() {
		b := bus.New()
		ctx := context.Background()

		Convey("When a handler subscribes to one event type", func() {
			var got []model.GameEvent
			b.Subscribe("plant_harvested", func(_ context.Context, e model.GameEvent) {
				got = append(got, e)
			})

			Convey("Then it receives only matching events", func() {
				b.Publish(ctx, model.NewGameEvent("plant_harvested", "player-1", 1, nil))
				b.Publish(ctx, model.NewGameEvent("plant_watered", "player-1", 1, nil))

				So(got, ShouldHaveLength, 1)
				So(got[0].Type, ShouldEqual, "plant_harvested")
			})
		})

		Convey("When a handler subscribes to all events", func() {
			var count int
			b.SubscribeAll(func(_ context.Context, e model.GameEvent) {
				count++
			})

			Convey("Then it receives every published event", func() {
				b.Publish(ctx, model.NewGameEvent("plant_harvested", "player-1", 1, nil))
				b.Publish(ctx, model.NewGameEvent("strain_bred", "player-2", 1, nil))
				So(count, ShouldEqual, 2)
			})
		})

		Convey("When counting subscribers", func() {
			So(b.SubscriberCount(), ShouldEqual, 0)
			b.Subscribe("plant_grown", func(context.Context, model.GameEvent) {})
			b.SubscribeAll(func(context.Context, model.GameEvent) {})
			So(b.SubscriberCount(), ShouldEqual, 2)
		})
	})
}

func TestUnsubscribe(t *testing.T) {
	Convey("Given an event bus with subscribers", t, func() {
		b := bus.New()
		ctx := context.Background()

		var typedCount, allCount int
		unsubTyped := b.Subscribe("product_sold", func(context.Context, model.GameEvent) {
			typedCount++
		})
		unsubAll := b.SubscribeAll(func(context.Context, model.GameEvent) {
			allCount++
		})

		Convey("When handlers unsubscribe", func() {
			unsubTyped()
			unsubAll()
			b.Publish(ctx, model.NewGameEvent("product_sold", "player-1", 1, nil))

			Convey("Then they stop receiving events", func() {
				So(typedCount, ShouldEqual, 0)
				So(allCount, ShouldEqual, 0)
				So(b.SubscriberCount(), ShouldEqual, 0)
			})
		})

		Convey("When unsubscribing twice", func() {
			unsubTyped()

			Convey("Then the second call is harmless", func() {
				So(unsubTyped, ShouldNotPanic)
			})
		})

		Convey("When resetting the bus", func() {
			b.Reset()

			Convey("Then every subscription is dropped", func() {
				So(b.SubscriberCount(), ShouldEqual, 0)
				b.Publish(ctx, model.NewGameEvent("product_sold", "player-1", 1, nil))
				So(typedCount, ShouldEqual, 0)
			})
		})
	})
}

func TestPublishOrdering(t *testing.T) {
	Convey("Given typed and catch-all subscribers", t, func() {
		b := bus.New()
		ctx := context.Background()

		var order []string
		b.Subscribe("room_built", func(context.Context, model.GameEvent) {
			order = append(order, "typed")
		})
		b.SubscribeAll(func(context.Context, model.GameEvent) {
			order = append(order, "all")
		})

		Convey("When publishing a matching event", func() {
			b.Publish(ctx, model.NewGameEvent("room_built", "player-1", 1, nil))

			Convey("Then typed handlers run before catch-all handlers", func() {
				So(order, ShouldResemble, []string{"typed", "all"})
			})
		})
	})
}

func TestConcurrentPublish(t *testing.T) {
	Convey("Given many concurrent publishers", t, func() {
		b := bus.New()
		ctx := context.Background()

		var mu sync.Mutex
		count := 0
		b.SubscribeAll(func(context.Context, model.GameEvent) {
			mu.Lock()
			count++
			mu.Unlock()
		})

		Convey("When publishing from multiple goroutines", func() {
			const goroutines = 8
			const perGoroutine = 100

			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perGoroutine; i++ {
						b.Publish(ctx, model.NewGameEvent("plant_grown", "player", 1, nil))
					}
				}()
			}
			wg.Wait()

			Convey("Then every event is dispatched exactly once", func() {
				mu.Lock()
				defer mu.Unlock()
				So(count, ShouldEqual, goroutines*perGoroutine)
			})
		})
	})
}
