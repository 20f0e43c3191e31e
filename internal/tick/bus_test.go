package tick

import "testing"

type damageEvent struct {
	TargetID int64
	Amount   int32
}

type deathEvent struct {
	EntityID int64
}

func TestEmitIsInvisibleUntilSwap(t *testing.T) {
	b := NewBus()
	Emit(b, damageEvent{TargetID: 1, Amount: 10})

	if got := Drain[damageEvent](b); len(got) != 0 {
		t.Fatalf("expected no events visible before Swap, got %d", len(got))
	}

	b.Swap()
	got := Drain[damageEvent](b)
	if len(got) != 1 || got[0].Amount != 10 {
		t.Fatalf("expected one damage event with amount 10, got %+v", got)
	}

	// Drain again: already consumed.
	if got := Drain[damageEvent](b); len(got) != 0 {
		t.Fatalf("expected drained events not to reappear, got %d", len(got))
	}
}

func TestBusKeysByType(t *testing.T) {
	b := NewBus()
	Emit(b, damageEvent{TargetID: 1, Amount: 5})
	Emit(b, deathEvent{EntityID: 1})
	b.Swap()

	dmg := Drain[damageEvent](b)
	deaths := Drain[deathEvent](b)
	if len(dmg) != 1 || len(deaths) != 1 {
		t.Fatalf("expected one event of each type, got dmg=%d deaths=%d", len(dmg), len(deaths))
	}
}
