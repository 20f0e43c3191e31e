package game

import (
	"time"

	"github.com/shardwell/worldcore/internal/tick"
	"github.com/shardwell/worldcore/internal/world"
)

// MovementBroadcastSystem queues a position update for every entity whose
// position changed since the last tick, the Phase 3 "movement" step of
// spec.md §4.6. Position commits themselves happen earlier (input
// handling for players, the AI system for monsters); this system is the
// single place that turns "position changed" into outbound traffic,
// keeping the interest-set fan-out logic in one spot.
type MovementBroadcastSystem struct {
	deps *Deps
	last map[world.EntityID]world.Vec3
}

func NewMovementBroadcastSystem(deps *Deps) *MovementBroadcastSystem {
	return &MovementBroadcastSystem{deps: deps, last: make(map[world.EntityID]world.Vec3)}
}

func (s *MovementBroadcastSystem) Phase() tick.Phase { return tick.PhaseMovement }

func (s *MovementBroadcastSystem) Update(now time.Time, dt time.Duration) {
	s.deps.State.IterateChannels(func(zoneID string, ch *world.Channel) {
		for _, p := range ch.Players {
			s.queueIfMoved(ch, p.ID, p.Position)
		}
		for _, m := range ch.Monsters {
			if !m.IsAlive() {
				continue
			}
			s.queueIfMoved(ch, m.ID, m.Position)
		}
	})
}

func (s *MovementBroadcastSystem) queueIfMoved(ch *world.Channel, id world.EntityID, pos world.Vec3) {
	if prev, ok := s.last[id]; ok && prev == pos {
		return
	}
	s.last[id] = pos
	s.deps.Broadcast.QueuePositionUpdate(ch, pos.X, pos.Z, PositionUpdateEvent{EntityID: uint64(id), X: pos.X, Y: pos.Y, Z: pos.Z})
}
