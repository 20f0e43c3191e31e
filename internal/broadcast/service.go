// Package broadcast implements the two-phase outbound model of spec.md
// §4.9: handlers stage encoded packets into each recipient's TCP write
// buffer during the tick (no syscall), and a single end-of-tick pass
// flushes every touched socket exactly once. UDP outbound paths bypass
// staging and send directly.
package broadcast

import (
	"github.com/shardwell/worldcore/internal/wire"
	"github.com/shardwell/worldcore/internal/world"
)

// Sink is the subset of netio.Session the broadcast service depends on,
// kept as an interface so tests can substitute a recording fake.
type Sink interface {
	Stage(op wire.Opcode, payload []byte) error
	Flush() error
}

// SessionLookup resolves a player entity to its outbound sink, nil if
// the player has no live TCP session (e.g. mid-disconnect).
type SessionLookup func(playerID world.EntityID) Sink

// Encoder turns a domain event into an opcode and payload. Kept as a
// function value so broadcast stays free of the protobuf schema
// dependency; callers supply the real encoder once wire messages are
// defined, or a delta-compressing one later without touching this file.
type Encoder func(any) (wire.Opcode, []byte, error)

// Service stages and flushes outbound traffic for one tick.
type Service struct {
	lookup  SessionLookup
	encode  Encoder
	touched map[world.EntityID]Sink
}

// NewService creates a broadcast service bound to a session lookup and
// payload encoder.
func NewService(lookup SessionLookup, encode Encoder) *Service {
	return &Service{lookup: lookup, encode: encode, touched: make(map[world.EntityID]Sink)}
}

// stage resolves recipients, encodes evt once, and stages it into each
// recipient's sink, recording the touched set.
func (s *Service) stage(recipients []*world.Player, evt any) error {
	op, payload, err := s.encode(evt)
	if err != nil {
		return err
	}
	for _, p := range recipients {
		sink := s.lookup(p.ID)
		if sink == nil {
			continue
		}
		if err := sink.Stage(op, payload); err != nil {
			continue
		}
		s.touched[p.ID] = sink
	}
	return nil
}

// QueuePositionUpdate stages a position update for every player in the
// given channel's interest set around (x, z).
func (s *Service) QueuePositionUpdate(ch *world.Channel, x, z float64, evt any) error {
	return s.stage(ch.NearbyPlayers(x, z), evt)
}

// BroadcastSpawn stages an entity-spawn notification to every player
// near the spawn point.
func (s *Service) BroadcastSpawn(ch *world.Channel, x, z float64, evt any) error {
	return s.stage(ch.NearbyPlayers(x, z), evt)
}

// BroadcastDespawn stages an entity-despawn notification.
func (s *Service) BroadcastDespawn(ch *world.Channel, x, z float64, evt any) error {
	return s.stage(ch.NearbyPlayers(x, z), evt)
}

// BroadcastDamage stages a damage event to every player near the fight.
func (s *Service) BroadcastDamage(ch *world.Channel, x, z float64, evt any) error {
	return s.stage(ch.NearbyPlayers(x, z), evt)
}

// BroadcastDeath stages an entity-death event.
func (s *Service) BroadcastDeath(ch *world.Channel, x, z float64, evt any) error {
	return s.stage(ch.NearbyPlayers(x, z), evt)
}

// Unicast stages evt for exactly one player — used for recipient-specific
// traffic like a PositionCorrection or an ErrorResponse that has no
// interest-set notion of "nearby".
func (s *Service) Unicast(p *world.Player, evt any) error {
	return s.stage([]*world.Player{p}, evt)
}

// FlushTouched performs the single end-of-tick pass: one Flush syscall
// per touched socket, then clears the touched set for the next tick.
func (s *Service) FlushTouched() {
	for id, sink := range s.touched {
		_ = sink.Flush()
		delete(s.touched, id)
	}
}

// TouchedCount reports how many sockets are pending flush, for tests and
// metrics.
func (s *Service) TouchedCount() int { return len(s.touched) }
