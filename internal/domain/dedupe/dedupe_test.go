package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	dedupe "github.com/chimeralabs/accolade/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should have default configuration", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording IDs", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the ID is new", func() {
				seen := d.SeenAndRecord(context.Background(), "p1/first_harvest")

				Convey("Then it should return false and record the ID", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the ID was already seen within the window", func() {
				d.SeenAndRecord(context.Background(), "p1/first_harvest")
				seen := d.SeenAndRecord(context.Background(), "p1/first_harvest")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When the window elapses", func() {
			now := time.Unix(5000, 0)
			clock := func() time.Time { return now }
			d := dedupe.NewInMemoryDeduper(
				dedupe.WithWindow(10*time.Second),
				dedupe.WithClock(clock),
			)

			d.SeenAndRecord(context.Background(), "p1/daily_tender")
			now = now.Add(11 * time.Second)
			seen := d.SeenAndRecord(context.Background(), "p1/daily_tender")

			Convey("Then the ID fires again", func() {
				So(seen, ShouldBeFalse)
			})
		})

		Convey("When unrecording an ID", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(context.Background(), "p1/first_harvest")
			d.Unrecord(context.Background(), "p1/first_harvest")

			Convey("Then it can fire again immediately", func() {
				So(d.SeenAndRecord(context.Background(), "p1/first_harvest"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the deduper reaches its size bound", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10))

			for i := 0; i < 25; i++ {
				d.SeenAndRecord(context.Background(), fmt.Sprintf("id-%d", i))
			}

			Convey("Then the bound holds", func() {
				So(d.Size(), ShouldBeLessThanOrEqualTo, 10)
			})
		})
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10000))

		var wg sync.WaitGroup
		var mu sync.Mutex
		firstCount := 0

		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("shared-%d", i)) {
						mu.Lock()
						firstCount++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each shared ID is recorded exactly once", func() {
			So(firstCount, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
