package filter

import (
	"context"
	"testing"
	"time"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

func TestEventFilter_BlockedTypes(t *testing.T) {
	f := New(WithBlockedTypes("ui_clicked", "camera_moved"))
	ctx := context.Background()

	if f.Admit(ctx, model.GameEvent{Type: "ui_clicked", PlayerID: "p1"}) {
		t.Error("expected blocked type to be rejected")
	}
	if f.Admit(ctx, model.GameEvent{Type: "camera_moved", PlayerID: "p1"}) {
		t.Error("expected blocked type to be rejected")
	}
	if !f.Admit(ctx, model.GameEvent{Type: "plant_harvested", PlayerID: "p1"}) {
		t.Error("expected unblocked type to be admitted")
	}

	if f.Blocked() != 2 {
		t.Errorf("expected 2 blocked, got %d", f.Blocked())
	}
	if f.Admitted() != 1 {
		t.Errorf("expected 1 admitted, got %d", f.Admitted())
	}
}

func TestEventFilter_RateLimiting(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	f := New(
		WithMaxEventsPerSecond(10), // min spacing 100ms
		WithClock(clock),
	)
	ctx := context.Background()
	e := model.GameEvent{Type: "plant_watered", PlayerID: "p1"}

	if !f.Admit(ctx, e) {
		t.Fatal("first event should be admitted")
	}

	// Same (type, player) within the spacing window is limited.
	now = now.Add(50 * time.Millisecond)
	if f.Admit(ctx, e) {
		t.Error("expected event within spacing window to be limited")
	}

	// A different player is an independent bucket.
	other := model.GameEvent{Type: "plant_watered", PlayerID: "p2"}
	if !f.Admit(ctx, other) {
		t.Error("expected different player to be admitted")
	}

	// A different event type is an independent bucket.
	if !f.Admit(ctx, model.GameEvent{Type: "plant_grown", PlayerID: "p1"}) {
		t.Error("expected different type to be admitted")
	}

	// After spacing elapses the original bucket admits again.
	now = now.Add(100 * time.Millisecond)
	if !f.Admit(ctx, e) {
		t.Error("expected event after spacing window to be admitted")
	}

	if f.RateLimited() != 1 {
		t.Errorf("expected 1 rate-limited, got %d", f.RateLimited())
	}
}

func TestEventFilter_LimiterPruning(t *testing.T) {
	now := time.Unix(2000, 0)
	clock := func() time.Time { return now }
	f := New(
		WithMaxEventsPerSecond(10),
		WithMaxLimiterEntries(3),
		WithClock(clock),
	)
	ctx := context.Background()

	players := []string{"a", "b", "c", "d", "e"}
	for i, p := range players {
		// Advance past the spacing window so earlier buckets are prunable.
		now = now.Add(200 * time.Millisecond)
		if !f.Admit(ctx, model.GameEvent{Type: "product_sold", PlayerID: p}) {
			t.Errorf("player %s (event %d) should be admitted", p, i)
		}
	}

	if got := len(f.lastAdmit); got > 3 {
		t.Errorf("limiter map exceeded bound: %d entries", got)
	}
}
