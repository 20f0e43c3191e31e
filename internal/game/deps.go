// Package game wires the domain packages (combat, ai, anticheat,
// persistence, broadcast) into tick.System implementations the runner
// drives once per tick, in the phase order spec.md §4.6 lays out:
// input → AI → combat → movement → persistence → broadcast. Grounded on
// the teacher's internal/system package, whose systems are similarly
// thin Update(dt) adapters over the domain packages in internal/core
// and internal/world.
package game

import (
	"context"
	"sync"
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
	"github.com/shardwell/worldcore/internal/world"
)

// DefaultPlayerMoveSpeed bounds displacement per second for the movement
// cap (spec.md §4.11 property 4) until per-class speeds are modeled.
const DefaultPlayerMoveSpeed = 6.0

// Deps bundles everything the tick systems need, constructed once at boot
// and shared by reference the way the teacher's handler.Deps is.
type Deps struct {
	State      *world.State
	Queue      *queue.Queue
	Skills     *data.SkillTable
	Monsters   *data.MonsterTable
	Loot       *data.LootTable
	Sessions   *session.Registry
	Bus        *tick.Bus
	Broadcast  *broadcast.Service
	WriteBack  *persistence.WriteBack
	Inventory  *persistence.InventoryRepo
	Characters external.CharacterProvider
	Accounts   external.AccountProvider
	JWT        external.JWTVerifier
	Log        *zap.Logger

	MovementGracePct      float64
	NPCInteractRange      float64
	RAMToCache            time.Duration
	CacheToStore          time.Duration
	ChannelSwitchCooldown time.Duration
	StartZoneID           string

	accountToPlayer map[int64]world.EntityID

	// pendingCharacter records the character a session selected with
	// OpCharacterSel, awaiting the confirming OpEnterWorld. Tick-goroutine
	// only, like accountToPlayer.
	pendingCharacter map[int64]external.CharacterSnapshot

	// tcpSessions is written by the accept-loop goroutine (RegisterTCPSession,
	// on every new connection) and read by the tick goroutine (TCPSession,
	// to bind a session to an account on login), so it carries its own lock
	// unlike the tick-only maps above.
	sessMu      sync.Mutex
	tcpSessions map[uint64]*netio.Session

	// playerSinks backs the broadcast.SessionLookup closure; populated on
	// EnterWorld and cleared on disconnect, tick-goroutine only.
	playerSinks map[world.EntityID]broadcast.Sink

	// disconnects carries dead session IDs from the accept-loop goroutine
	// into the tick loop, drained once per tick by InputSystem ahead of
	// ordinary packet dispatch.
	disconnects chan uint64

	ctx context.Context
}

// RegisterPlayer records which entity an account is controlling, so
// inbound packets (tagged only with AccountID, per spec.md §4.5) can be
// resolved back to a world.Player. Called on EnterWorld.
func (d *Deps) RegisterPlayer(accountID int64, id world.EntityID) {
	d.accountToPlayer[accountID] = id
}

// UnregisterPlayer clears the account-to-entity mapping on disconnect.
func (d *Deps) UnregisterPlayer(accountID int64) {
	delete(d.accountToPlayer, accountID)
}

// PlayerByAccount resolves an inbound packet's AccountID to the live
// player record and its owning channel.
func (d *Deps) PlayerByAccount(accountID int64) (*world.Player, *world.Channel, bool) {
	id, ok := d.accountToPlayer[accountID]
	if !ok {
		return nil, nil, false
	}
	return d.State.FindPlayer(id)
}

// RegisterTCPSession records a newly accepted connection so a later login
// frame can bind it to an account. Safe for concurrent use; called from
// the accept-loop goroutine.
func (d *Deps) RegisterTCPSession(sess *netio.Session) {
	d.sessMu.Lock()
	defer d.sessMu.Unlock()
	d.tcpSessions[sess.ID] = sess
}

// UnregisterTCPSession drops a terminated connection's record, returning
// it if present.
func (d *Deps) UnregisterTCPSession(sessionID uint64) (*netio.Session, bool) {
	d.sessMu.Lock()
	defer d.sessMu.Unlock()
	sess, ok := d.tcpSessions[sessionID]
	delete(d.tcpSessions, sessionID)
	return sess, ok
}

// TCPSession resolves a raw TCP session ID to its connection record.
func (d *Deps) TCPSession(sessionID uint64) (*netio.Session, bool) {
	d.sessMu.Lock()
	defer d.sessMu.Unlock()
	sess, ok := d.tcpSessions[sessionID]
	return sess, ok
}

// QueueDisconnect reports a terminated TCP session to the tick loop.
// Non-blocking: a full channel only means the next tick's drain is a
// packet behind, never a dropped disconnect, since the session stays in
// tcpSessions until UnregisterTCPSession runs it.
func (d *Deps) QueueDisconnect(sessionID uint64) {
	select {
	case d.disconnects <- sessionID:
	default:
		d.Log.Warn("disconnect queue full, delivering once the tick drains it", zap.Uint64("session", sessionID))
		go func() { d.disconnects <- sessionID }()
	}
}

// drainDisconnects returns every disconnect reported since the last call.
func (d *Deps) drainDisconnects() []uint64 {
	var out []uint64
	for {
		select {
		case id := <-d.disconnects:
			out = append(out, id)
		default:
			return out
		}
	}
}

// SetPlayerSink binds a player entity to its outbound TCP sink, making it
// reachable from broadcast staging. Called on EnterWorld.
func (d *Deps) SetPlayerSink(id world.EntityID, sink broadcast.Sink) {
	d.playerSinks[id] = sink
}

// ClearPlayerSink unbinds a player from its sink on disconnect.
func (d *Deps) ClearPlayerSink(id world.EntityID) {
	delete(d.playerSinks, id)
}

// LookupPlayerSink implements broadcast.SessionLookup over playerSinks.
func (d *Deps) LookupPlayerSink(id world.EntityID) broadcast.Sink {
	sink, ok := d.playerSinks[id]
	if !ok {
		return nil
	}
	return sink
}

// NewDeps constructs the shared dependency bundle.
func NewDeps(ctx context.Context, state *world.State, q *queue.Queue, skills *data.SkillTable, monsters *data.MonsterTable, loot *data.LootTable, sessions *session.Registry, bus *tick.Bus, bcast *broadcast.Service, wb *persistence.WriteBack, inv *persistence.InventoryRepo, chars external.CharacterProvider, accounts external.AccountProvider, jwt external.JWTVerifier, log *zap.Logger, gracePct, npcRange float64, ramToCache, cacheToStore, channelSwitchCooldown time.Duration, startZoneID string) *Deps {
	return &Deps{
		State:                 state,
		Queue:                 q,
		Skills:                skills,
		Monsters:              monsters,
		Loot:                  loot,
		Sessions:              sessions,
		Bus:                   bus,
		Broadcast:             bcast,
		WriteBack:             wb,
		Inventory:             inv,
		Characters:            chars,
		Accounts:              accounts,
		JWT:                   jwt,
		Log:                   log,
		MovementGracePct:      gracePct,
		NPCInteractRange:      npcRange,
		RAMToCache:            ramToCache,
		CacheToStore:          cacheToStore,
		ChannelSwitchCooldown: channelSwitchCooldown,
		StartZoneID:           startZoneID,
		accountToPlayer:       make(map[int64]world.EntityID),
		pendingCharacter:      make(map[int64]external.CharacterSnapshot),
		tcpSessions:           make(map[uint64]*netio.Session),
		playerSinks:           make(map[world.EntityID]broadcast.Sink),
		disconnects:           make(chan uint64, 256),
		ctx:                   ctx,
	}
}
