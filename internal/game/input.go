package game

import (
	"encoding/binary"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/anticheat"
	"github.com/shardwell/worldcore/internal/combat"
	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/queue"
	"github.com/shardwell/worldcore/internal/tick"
	"github.com/shardwell/worldcore/internal/wire"
	"github.com/shardwell/worldcore/internal/world"
)

// InputSystem drains the shared input queue once per tick and dispatches
// each packet to the handler for its opcode, the Phase 0 step of
// spec.md §4.6's ordered tick. Grounded on the teacher's
// system.InputSystem drain-and-dispatch loop.
type InputSystem struct {
	deps *Deps
}

func NewInputSystem(deps *Deps) *InputSystem { return &InputSystem{deps: deps} }

func (s *InputSystem) Phase() tick.Phase { return tick.PhaseInput }

func (s *InputSystem) Update(now time.Time, dt time.Duration) {
	for _, sessionID := range s.deps.drainDisconnects() {
		s.handleDisconnect(sessionID)
	}
	for _, pkt := range s.deps.Queue.Drain() {
		s.dispatch(pkt, now, dt)
	}
}

func (s *InputSystem) dispatch(pkt queue.Packet, now time.Time, dt time.Duration) {
	switch pkt.Opcode {
	case wire.OpRegister:
		s.handleRegister(pkt)
	case wire.OpLogin:
		s.handleLogin(pkt)
	case wire.OpCharacterList:
		s.handleCharacterList(pkt)
	case wire.OpCharacterSel:
		s.handleCharacterSelect(pkt)
	case wire.OpCharacterCreate:
		s.handleCharacterCreate(pkt)
	case wire.OpCharacterDelete:
		s.handleCharacterDelete(pkt)
	case wire.OpEnterWorld:
		s.handleEnterWorld(pkt, now)
	case wire.OpMovementInput:
		s.handleMovement(pkt, now, dt)
	case wire.OpUseSkill:
		s.handleUseSkill(pkt, now)
	case wire.OpStatAllocate:
		s.handleStatAllocate(pkt)
	case wire.OpVendorBuy, wire.OpVendorSell:
		s.handleVendorProximity(pkt)
	case wire.OpSelectTarget:
		s.handleSelectTarget(pkt)
	case wire.OpAutoAttackToggle:
		s.handleAutoAttackToggle(pkt)
	case wire.OpChatIn:
		s.handleChat(pkt)
	case wire.OpInventory, wire.OpEquip, wire.OpUnequip:
		s.handleInventoryOp(pkt)
	case wire.OpLootPickup:
		s.handleLootPickup(pkt, now)
	case wire.OpChannelList:
		s.handleChannelList(pkt, now)
	case wire.OpChannelSwitch:
		s.handleChannelSwitch(pkt, now)
	case wire.OpHeartbeat:
		if sess, ok := s.deps.Sessions.BySession(pkt.AccountID); ok {
			sess.Heartbeat(now)
		}
	default:
		s.deps.Log.Debug("unhandled opcode", zap.Uint16("opcode", uint16(pkt.Opcode)))
	}
}

// handleMovement implements the movement step of spec.md §4.6: validate
// the displacement against the configured speed cap and zone bounds,
// reject with a PositionCorrection on failure, otherwise commit the new
// position and update the spatial grid.
func (s *InputSystem) handleMovement(pkt queue.Packet, now time.Time, dt time.Duration) {
	if len(pkt.Payload) < 16 {
		return
	}
	x := math.Float64frombits(binary.BigEndian.Uint64(pkt.Payload[0:8]))
	z := math.Float64frombits(binary.BigEndian.Uint64(pkt.Payload[8:16]))

	p, ch, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok || !p.IsAlive() {
		return
	}
	zone, _ := s.deps.State.Zone(p.ZoneID)

	newPos := world.Vec3{X: x, Y: p.Position.Y, Z: z}
	res, aerr := anticheat.ValidateMovement(p, newPos, dt, DefaultPlayerMoveSpeed, s.deps.MovementGracePct, zone)
	if aerr != nil {
		s.deps.Broadcast.Unicast(p, PositionCorrectionEvent{X: res.Corrected.X, Y: res.Corrected.Y, Z: res.Corrected.Z})
		return
	}

	p.Position = res.Corrected
	if ch != nil {
		ch.MovePlayer(p.ID, p.Position)
	}
}

// handleUseSkill implements the six-check validation chain of spec.md
// §4.7 then resolves damage against the addressed monster, per the
// loaded skill and monster definition tables.
func (s *InputSystem) handleUseSkill(pkt queue.Packet, now time.Time) {
	if len(pkt.Payload) < 12 {
		return
	}
	skillID := int32(binary.BigEndian.Uint32(pkt.Payload[0:4]))
	targetID := world.EntityID(binary.BigEndian.Uint64(pkt.Payload[4:12]))

	attacker, attackerCh, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	target, targetCh, ok := s.deps.State.FindMonster(targetID)
	if !ok {
		return
	}

	req := combat.UseSkillRequest{Attacker: attacker, SkillID: skillID, Target: target, Now: now}
	def, verr := combat.ValidateUseSkill(req, s.deps.Skills, attackerCh, targetCh)
	if verr != nil {
		s.emitError(attacker, verr)
		return
	}

	skillLevel := attacker.LearnedSkills[skillID]
	dmg, died := combat.ApplyUseSkill(req, def, skillLevel)
	attacker.MarkDirty()

	tick.Emit(s.deps.Bus, combat.DamageEvent{AttackerID: attacker.ID, TargetID: target.ID, Amount: dmg, At: now})
	s.deps.Broadcast.BroadcastDamage(targetCh, target.Position.X, target.Position.Z,
		combat.DamageEvent{AttackerID: attacker.ID, TargetID: target.ID, Amount: dmg, At: now})

	if died {
		dropped, xp := combat.KillMonster(target, attacker.ID, now, s.deps.Loot)
		attacker.XP += xp
		attacker.MarkDirty()
		tick.Emit(s.deps.Bus, combat.EntityDeathEvent{VictimID: target.ID, KillerID: attacker.ID, At: now})
		tick.Emit(s.deps.Bus, combat.XpGainEvent{PlayerID: attacker.ID, Amount: xp, At: now})
		s.deps.Broadcast.BroadcastDeath(targetCh, target.Position.X, target.Position.Z,
			combat.EntityDeathEvent{VictimID: target.ID, KillerID: attacker.ID, At: now})
		s.deps.Broadcast.Unicast(attacker, combat.XpGainEvent{PlayerID: attacker.ID, Amount: xp, At: now})
		depositGroundLoot(s.deps, targetCh, target.Position, dropped)
	}
}

func (s *InputSystem) handleStatAllocate(pkt queue.Packet) {
	if len(pkt.Payload) < 20 {
		return
	}
	str := int32(binary.BigEndian.Uint32(pkt.Payload[0:4]))
	sta := int32(binary.BigEndian.Uint32(pkt.Payload[4:8]))
	dex := int32(binary.BigEndian.Uint32(pkt.Payload[8:12]))
	intel := int32(binary.BigEndian.Uint32(pkt.Payload[12:16]))
	cost := int32(binary.BigEndian.Uint32(pkt.Payload[16:20]))

	p, _, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	if verr := anticheat.ValidateStatAllocate(p, str, sta, dex, intel, cost); verr != nil {
		s.emitError(p, verr)
		return
	}
	anticheat.ApplyStatAllocate(p, str, sta, dex, intel, cost)
}

func (s *InputSystem) handleVendorProximity(pkt queue.Packet) {
	if len(pkt.Payload) < 24 {
		return
	}
	npcX := math.Float64frombits(binary.BigEndian.Uint64(pkt.Payload[0:8]))
	npcY := math.Float64frombits(binary.BigEndian.Uint64(pkt.Payload[8:16]))
	npcZ := math.Float64frombits(binary.BigEndian.Uint64(pkt.Payload[16:24]))

	p, _, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	if verr := anticheat.ValidateVendorProximity(p, world.Vec3{X: npcX, Y: npcY, Z: npcZ}, s.deps.NPCInteractRange); verr != nil {
		s.emitError(p, verr)
	}
	// Only the proximity gate runs here; vendor opcodes make no item or
	// gold transfer.
}

func (s *InputSystem) emitError(p *world.Player, e *errs.Error) {
	s.deps.Broadcast.Unicast(p, ErrorEvent{Code: uint16(e.Code)})
	s.deps.Log.Debug("rejected client action", zap.Int64("account", p.AccountID), zap.String("category", e.Category.String()), zap.Uint16("code", uint16(e.Code)))
}
