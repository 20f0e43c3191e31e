package game

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/broadcast"
	"github.com/shardwell/worldcore/internal/data"
	"github.com/shardwell/worldcore/internal/external"
	"github.com/shardwell/worldcore/internal/netio"
	"github.com/shardwell/worldcore/internal/persistence"
	"github.com/shardwell/worldcore/internal/queue"
	"github.com/shardwell/worldcore/internal/session"
	"github.com/shardwell/worldcore/internal/tick"
	"github.com/shardwell/worldcore/internal/wire"
	"github.com/shardwell/worldcore/internal/world"
)

func putFloat64Test(b []byte, v float64) { binary.BigEndian.PutUint64(b, math.Float64bits(v)) }
func putUint32Test(b []byte, v uint32)   { binary.BigEndian.PutUint32(b, v) }
func toStringTest(v any) string          { return fmt.Sprint(v) }

type recordingSink struct {
	staged  []wire.Opcode
	flushed int
}

func (s *recordingSink) Stage(op wire.Opcode, payload []byte) error {
	s.staged = append(s.staged, op)
	return nil
}
func (s *recordingSink) Flush() error { s.flushed++; return nil }

func newTestDeps(t *testing.T) (*Deps, *world.State, *world.Channel) {
	t.Helper()
	state := world.NewState(1000, 50, 1_000_000)
	state.AddZone(world.ZoneDef{ID: "town", BoundsMin: world.Vec3{X: -1000, Y: -1000, Z: -1000}, BoundsMax: world.Vec3{X: 1000, Y: 1000, Z: 1000}, DefaultSpawn: world.Vec3{}})
	zone, _ := state.Zone("town")
	ch := zone.Channels[0]

	log := zap.NewNop()
	var deps *Deps
	lookup := func(id world.EntityID) broadcast.Sink {
		return deps.LookupPlayerSink(id)
	}
	bcast := broadcast.NewService(lookup, Encode)

	deps = NewDeps(context.Background(), state, queue.New(16, 8, log), data.NewSkillTable(nil), nil, &data.LootTable{},
		session.NewRegistry(), tick.NewBus(), bcast, nil, nil, nil, nil, nil, log,
		0.2, 10, time.Minute, time.Hour, 5*time.Second, "town")
	return deps, state, ch
}

func addTestPlayer(deps *Deps, ch *world.Channel, id world.EntityID, accountID int64) (*world.Player, *recordingSink) {
	p := world.NewPlayer(id, id, accountID, "tester", "warrior")
	p.HP, p.MaxHP = 100, 100
	deps.State.PlaceInChannel(p, "town", ch.Index)
	sink := &recordingSink{}
	deps.RegisterPlayer(accountID, id)
	deps.SetPlayerSink(id, sink)
	return p, sink
}

func TestInputSystemMovementAcceptsWithinCap(t *testing.T) {
	deps, _, ch := newTestDeps(t)
	p, _ := addTestPlayer(deps, ch, 1, 100)

	payload := make([]byte, 16)
	putFloat64Test(payload[0:8], 0.5)
	putFloat64Test(payload[8:16], 0)
	deps.Queue.Push(queue.Packet{AccountID: 100, Opcode: wire.OpMovementInput, Payload: payload})

	sys := NewInputSystem(deps)
	sys.Update(time.Now(), 100*time.Millisecond)

	if p.Position.X != 0.5 {
		t.Fatalf("expected position committed to x=0.5, got %v", p.Position)
	}
}

func TestInputSystemMovementRejectsSpeedHack(t *testing.T) {
	deps, _, ch := newTestDeps(t)
	p, sink := addTestPlayer(deps, ch, 1, 100)

	payload := make([]byte, 16)
	putFloat64Test(payload[0:8], 9999)
	putFloat64Test(payload[8:16], 0)
	deps.Queue.Push(queue.Packet{AccountID: 100, Opcode: wire.OpMovementInput, Payload: payload})

	sys := NewInputSystem(deps)
	sys.Update(time.Now(), 100*time.Millisecond)

	if p.Position.X != 0 {
		t.Fatalf("expected rejected movement to leave position unchanged, got %v", p.Position)
	}
	if len(sink.staged) != 1 || sink.staged[0] != wire.OpPositionCorrection {
		t.Fatalf("expected a position-correction reply, got %v", sink.staged)
	}
}

func TestInputSystemStatAllocate(t *testing.T) {
	deps, _, ch := newTestDeps(t)
	p, _ := addTestPlayer(deps, ch, 1, 100)
	p.Stats.UnspentPoints = 5

	payload := make([]byte, 20)
	putUint32Test(payload[0:4], 1)
	putUint32Test(payload[16:20], 1)
	deps.Queue.Push(queue.Packet{AccountID: 100, Opcode: wire.OpStatAllocate, Payload: payload})

	NewInputSystem(deps).Update(time.Now(), 50*time.Millisecond)

	if p.Stats.STR != 1 || p.Stats.UnspentPoints != 4 {
		t.Fatalf("expected one STR point spent, got stats=%+v", p.Stats)
	}
}

func TestInputSystemDisconnectForceFlushes(t *testing.T) {
	deps, state, ch := newTestDeps(t)
	p, sink := addTestPlayer(deps, ch, 1, 100)
	_ = sink

	cache := &fakeCache{hashes: map[int64]map[string]string{}}
	chars := &fakeChars{}
	deps.WriteBack = persistence.NewWriteBack(cache, chars, zap.NewNop())
	deps.Sessions.Login(mustSession(t, 100))

	deps.QueueDisconnect(42)
	deps.tcpSessions[42] = &netio.Session{AccountID: 100}

	NewInputSystem(deps).Update(time.Now(), 50*time.Millisecond)

	if _, _, ok := state.FindPlayer(p.ID); ok {
		t.Fatal("expected player removed from world on disconnect")
	}
	if cache.writes != 1 {
		t.Fatalf("expected a synchronous force-flush write, got %d", cache.writes)
	}
}

func TestAISystemAdvancesIdleToAggro(t *testing.T) {
	deps, _, ch := newTestDeps(t)
	p, _ := addTestPlayer(deps, ch, 1, 100)
	p.Position = world.Vec3{X: 1, Y: 0, Z: 0}

	m := world.NewMonster(1_000_001, 1, "wolf", world.Vec3{}, 50)
	m.AggroRange = 10
	m.AttackRange = 2
	m.LeashRange = 50
	ch.AddMonster(m)

	sys := NewAISystem(deps)
	sys.Update(time.Now(), 100*time.Millisecond)

	if m.AIState != world.AIAggro {
		t.Fatalf("expected monster to aggro onto nearby player, got state %v", m.AIState)
	}
}

func TestAutoAttackSystemResolvesDeath(t *testing.T) {
	deps, _, ch := newTestDeps(t)
	p, _ := addTestPlayer(deps, ch, 1, 100)
	p.AutoAttack = true
	p.WeaponBaseAttack = 1000

	m := world.NewMonster(1_000_001, 1, "target", world.Vec3{}, 1)
	m.AttackRange = 100
	m.Defense = 0
	m.XPReward = 10
	ch.AddMonster(m)
	p.TargetEntityID = m.ID

	sys := NewAutoAttackSystem(deps)
	sys.Update(time.Now(), 50*time.Millisecond)

	if m.HP != 0 {
		t.Fatalf("expected lethal auto-attack, got hp=%d", m.HP)
	}
	if p.XP == 0 {
		t.Fatal("expected XP award on kill")
	}
}

func TestMovementBroadcastSystemSkipsUnchangedPositions(t *testing.T) {
	deps, _, ch := newTestDeps(t)
	p, _ := addTestPlayer(deps, ch, 1, 100)

	sys := NewMovementBroadcastSystem(deps)
	sys.Update(time.Now(), 50*time.Millisecond)
	if deps.Broadcast.TouchedCount() == 0 {
		t.Fatal("expected first pass to stage the initial position")
	}
	deps.Broadcast.FlushTouched()

	sys.Update(time.Now(), 50*time.Millisecond)
	if deps.Broadcast.TouchedCount() != 0 {
		t.Fatal("expected no re-broadcast for an unmoved player")
	}

	p.Position.X = 5
	sys.Update(time.Now(), 50*time.Millisecond)
	if deps.Broadcast.TouchedCount() == 0 {
		t.Fatal("expected a moved player to be staged again")
	}
}

func TestPersistenceSystemRespectsCadence(t *testing.T) {
	deps, _, ch := newTestDeps(t)
	p, _ := addTestPlayer(deps, ch, 1, 100)
	p.MarkDirty()

	cache := &fakeCache{hashes: map[int64]map[string]string{}}
	chars := &fakeChars{}
	deps.WriteBack = persistence.NewWriteBack(cache, chars, zap.NewNop())
	deps.RAMToCache = time.Minute

	sys := NewPersistenceSystem(deps)
	now := time.Now()
	sys.Update(now, 50*time.Millisecond) // first call only seeds timestamps
	if cache.writes != 0 {
		t.Fatal("expected no flush on the seeding call")
	}

	sys.Update(now.Add(2*time.Minute), 50*time.Millisecond)
	if cache.writes != 1 {
		t.Fatalf("expected one flush once the cadence elapsed, got %d", cache.writes)
	}
}

func TestBroadcastFlushSystemFlushesAndSwaps(t *testing.T) {
	deps, _, ch := newTestDeps(t)
	_, sink := addTestPlayer(deps, ch, 1, 100)

	deps.Broadcast.QueuePositionUpdate(ch, 0, 0, PositionUpdateEvent{})
	sys := NewBroadcastFlushSystem(deps)
	sys.Update(time.Now(), 50*time.Millisecond)

	if sink.flushed != 1 {
		t.Fatalf("expected exactly one flush, got %d", sink.flushed)
	}
}

// --- fakes ---

type fakeCache struct {
	hashes map[int64]map[string]string
	dirty  map[int64]bool
	writes int
}

func (c *fakeCache) WriteCharacterHash(ctx context.Context, characterID int64, fields map[string]any) error {
	c.writes++
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = toStringTest(v)
	}
	c.hashes[characterID] = out
	return nil
}
func (c *fakeCache) MarkDirty(ctx context.Context, characterID int64) error {
	if c.dirty == nil {
		c.dirty = make(map[int64]bool)
	}
	c.dirty[characterID] = true
	return nil
}
func (c *fakeCache) ScanDirty(ctx context.Context) ([]int64, error) {
	var ids []int64
	for id, d := range c.dirty {
		if d {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
func (c *fakeCache) ReadCharacterHash(ctx context.Context, characterID int64) (map[string]string, error) {
	return c.hashes[characterID], nil
}
func (c *fakeCache) ClearDirty(ctx context.Context, characterID int64) error {
	delete(c.dirty, characterID)
	return nil
}

type fakeChars struct{}

func (f *fakeChars) ListByAccount(ctx context.Context, accountID int64) ([]external.CharacterSummary, error) {
	return nil, nil
}
func (f *fakeChars) Load(ctx context.Context, characterID, accountID int64) (external.CharacterSnapshot, error) {
	return external.CharacterSnapshot{CharacterID: characterID, AccountID: accountID}, nil
}
func (f *fakeChars) Create(ctx context.Context, accountID int64, name string, classID int32) (external.CharacterSnapshot, error) {
	return external.CharacterSnapshot{}, nil
}
func (f *fakeChars) Save(ctx context.Context, snap external.CharacterSnapshot) error { return nil }
func (f *fakeChars) SoftDelete(ctx context.Context, characterID, accountID int64) error { return nil }

func mustSession(t *testing.T, accountID int64) *session.Session {
	t.Helper()
	s, err := session.NewSession(accountID, 42, "127.0.0.1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}
