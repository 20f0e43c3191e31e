package broadcast

import (
	"testing"

	"github.com/shardwell/worldcore/internal/wire"
	"github.com/shardwell/worldcore/internal/world"
)

type recordingSink struct {
	staged  int
	flushed int
}

func (s *recordingSink) Stage(op wire.Opcode, payload []byte) error { s.staged++; return nil }
func (s *recordingSink) Flush() error                                { s.flushed++; return nil }

func newTestChannel(cellSize int32) (*world.Channel, *world.Player, *world.Player) {
	s := world.NewState(1000, cellSize, 1_000_000)
	s.AddZone(world.ZoneDef{ID: "town", BoundsMin: world.Vec3{X: -1000, Y: -1000, Z: -1000}, BoundsMax: world.Vec3{X: 1000, Y: 1000, Z: 1000}})
	p1 := world.NewPlayer(s.NextPlayerID(), 1, 1, "near", "warrior")
	p1.Position = world.Vec3{X: 0, Y: 0, Z: 0}
	p2 := world.NewPlayer(s.NextPlayerID(), 2, 2, "far", "mage")
	p2.Position = world.Vec3{X: 5000, Y: 0, Z: 5000}
	ch, _ := s.PlacePlayer(p1, "town")
	ch2, _ := s.PlacePlayer(p2, "town")
	_ = ch2
	return ch, p1, p2
}

func TestQueuePositionUpdateReachesOnlyNearbyPlayers(t *testing.T) {
	ch, p1, p2 := newTestChannel(50)
	sinks := map[world.EntityID]*recordingSink{
		p1.ID: {},
		p2.ID: {},
	}
	lookup := func(id world.EntityID) Sink {
		if s, ok := sinks[id]; ok {
			return s
		}
		return nil
	}
	encode := func(evt any) (wire.Opcode, []byte, error) { return wire.OpPositionBroadcast, []byte("x"), nil }

	svc := NewService(lookup, encode)
	if err := svc.QueuePositionUpdate(ch, 0, 0, struct{}{}); err != nil {
		t.Fatalf("QueuePositionUpdate: %v", err)
	}

	if sinks[p1.ID].staged != 1 {
		t.Fatalf("expected near player staged once, got %d", sinks[p1.ID].staged)
	}
	if sinks[p2.ID].staged != 0 {
		t.Fatalf("expected far player untouched, got %d", sinks[p2.ID].staged)
	}

	svc.FlushTouched()
	if sinks[p1.ID].flushed != 1 {
		t.Fatalf("expected near player flushed once, got %d", sinks[p1.ID].flushed)
	}
	if svc.TouchedCount() != 0 {
		t.Fatalf("expected touched set cleared after flush, got %d", svc.TouchedCount())
	}
}

func TestFlushFlushesEachSocketExactlyOnce(t *testing.T) {
	ch, p1, _ := newTestChannel(50)
	sink := &recordingSink{}
	lookup := func(id world.EntityID) Sink { return sink }
	encode := func(evt any) (wire.Opcode, []byte, error) { return wire.OpDamageEvent, nil, nil }

	svc := NewService(lookup, encode)
	svc.BroadcastDamage(ch, p1.Position.X, p1.Position.Z, struct{}{})
	svc.BroadcastDeath(ch, p1.Position.X, p1.Position.Z, struct{}{})
	svc.FlushTouched()

	if sink.flushed != 1 {
		t.Fatalf("expected exactly one flush despite two stages to the same socket, got %d", sink.flushed)
	}
}
