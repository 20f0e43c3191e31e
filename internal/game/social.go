package game

import (
	"context"
	"encoding/binary"
	"time"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/anticheat"
	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/persistence"
	"github.com/shardwell/worldcore/internal/queue"
	"github.com/shardwell/worldcore/internal/wire"
	"github.com/shardwell/worldcore/internal/world"
)

func (s *InputSystem) handleSelectTarget(pkt queue.Packet) {
	if len(pkt.Payload) < 8 {
		return
	}
	targetID := world.EntityID(binary.BigEndian.Uint64(pkt.Payload[0:8]))

	p, _, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	p.TargetEntityID = targetID
}

func (s *InputSystem) handleAutoAttackToggle(pkt queue.Packet) {
	if len(pkt.Payload) < 1 {
		return
	}
	on := pkt.Payload[0] != 0

	p, _, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	p.AutoAttack = on
}

// handleChat fans a chat line out to the players in the sender's channel
// whose grid cell is within the 3x3 neighbourhood of the sender's.
// Private whispers and guild scopes are out of scope (spec.md
// Non-goals); the single supported scope is channel-local say.
func (s *InputSystem) handleChat(pkt queue.Packet) {
	if len(pkt.Payload) < 3 {
		return
	}
	scope := pkt.Payload[0]
	textLen := int(binary.BigEndian.Uint16(pkt.Payload[1:3]))
	if len(pkt.Payload) < 3+textLen {
		return
	}
	text := string(pkt.Payload[3 : 3+textLen])

	p, ch, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	s.deps.Broadcast.QueuePositionUpdate(ch, p.Position.X, p.Position.Z, ChatBroadcastEvent{
		SenderID: uint64(p.ID), SenderName: p.Name, Scope: scope, Text: text,
	})
}

// handleInventoryOp persists an inventory/equipment mutation directly
// through InventoryRepo, bypassing the tiered write-back cache: gold and
// item state are the most exploit-sensitive fields in the system, so
// spec.md §4.10 has them skip the RAM/cache tiers entirely.
func (s *InputSystem) handleInventoryOp(pkt queue.Packet) {
	p, _, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	switch pkt.Opcode {
	case wire.OpInventory:
		s.applyInventoryUpdate(p, pkt.Payload)
	case wire.OpEquip:
		s.applyEquip(p, pkt.Payload)
	case wire.OpUnequip:
		s.applyUnequip(p, pkt.Payload)
	}
}

func (s *InputSystem) applyInventoryUpdate(p *world.Player, payload []byte) {
	if len(payload) < 2 {
		return
	}
	count := int(binary.BigEndian.Uint16(payload[0:2]))
	offset := 2
	slots := make([]persistence.InventorySlot, 0, count)
	for i := 0; i < count; i++ {
		if offset+12 > len(payload) {
			return
		}
		slot := int(binary.BigEndian.Uint16(payload[offset : offset+2]))
		itemDefID := int32(binary.BigEndian.Uint32(payload[offset+2 : offset+6]))
		amount := int32(binary.BigEndian.Uint32(payload[offset+6 : offset+10]))
		enh := int(binary.BigEndian.Uint16(payload[offset+10 : offset+12]))
		slots = append(slots, persistence.InventorySlot{Slot: slot, ItemDefID: itemDefID, Amount: amount, EnhancementLevel: enh})
		offset += 12
	}
	if offset+8 > len(payload) {
		return
	}
	goldDelta := int64(binary.BigEndian.Uint64(payload[offset : offset+8]))

	if err := s.deps.Inventory.ApplyInventoryAndGold(context.Background(), p.CharacterID, slots, goldDelta); err != nil {
		s.deps.Log.Error("apply inventory update", zap.Int64("character", p.CharacterID), zap.Error(err))
		s.emitError(p, errs.New(errs.Resource, errs.CodeInventoryFull, uint16(wire.OpInventory)))
		return
	}
	p.Gold += goldDelta
	s.deps.Broadcast.Unicast(p, GoldUpdateEvent{Gold: p.Gold})
}

func (s *InputSystem) applyEquip(p *world.Player, payload []byte) {
	slotType, invSlot, ok := decodeEquipPayload(payload)
	if !ok {
		return
	}
	if err := s.deps.Inventory.SetEquipment(context.Background(), p.CharacterID, map[string]int{slotType: invSlot}); err != nil {
		s.deps.Log.Error("equip", zap.Int64("character", p.CharacterID), zap.Error(err))
	}
}

func (s *InputSystem) applyUnequip(p *world.Player, payload []byte) {
	if len(payload) < 2 {
		return
	}
	nameLen := int(binary.BigEndian.Uint16(payload[0:2]))
	if len(payload) < 2+nameLen {
		return
	}
	if err := s.deps.Inventory.SetEquipment(context.Background(), p.CharacterID, map[string]int{}); err != nil {
		s.deps.Log.Error("unequip", zap.Int64("character", p.CharacterID), zap.Error(err))
	}
}

// handleChannelList answers with every channel of the requesting
// player's current zone and its live occupancy, so a client can pick a
// less crowded shard before switching.
func (s *InputSystem) handleChannelList(pkt queue.Packet, now time.Time) {
	p, _, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	zone, ok := s.deps.State.Zone(p.ZoneID)
	if !ok {
		return
	}
	entries := make([]ChannelEntry, 0, len(zone.Channels))
	for _, c := range zone.Channels {
		entries = append(entries, ChannelEntry{Index: int32(c.Index), Occupancy: int32(len(c.Players)), Capacity: int32(c.Capacity)})
	}
	s.deps.Broadcast.Unicast(p, ChannelListEvent{Channels: entries})
}

// handleChannelSwitch re-places the player into a different channel of
// their current zone, subject to the per-player switch cooldown and the
// target channel's capacity (spec.md §4.11).
func (s *InputSystem) handleChannelSwitch(pkt queue.Packet, now time.Time) {
	if len(pkt.Payload) < 4 {
		return
	}
	targetIndex := int(int32(binary.BigEndian.Uint32(pkt.Payload[0:4])))

	p, ch, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	zone, ok := s.deps.State.Zone(p.ZoneID)
	if !ok || targetIndex < 0 || targetIndex >= len(zone.Channels) {
		return
	}
	target := zone.Channels[targetIndex]
	if verr := anticheat.ValidateChannelSwitch(p, target, now, s.deps.ChannelSwitchCooldown); verr != nil {
		s.emitError(p, verr)
		return
	}

	s.deps.Broadcast.BroadcastDespawn(ch, p.Position.X, p.Position.Z, EntityDespawnEvent{EntityID: uint64(p.ID)})
	s.deps.State.RemovePlayer(p.ID)
	newCh, err := s.deps.State.PlaceInChannel(p, p.ZoneID, targetIndex)
	if err != nil {
		s.deps.Log.Error("channel switch", zap.Int64("account", pkt.AccountID), zap.Error(err))
		return
	}
	p.LastChannelSwitch = now

	s.deps.Broadcast.Unicast(p, ChannelSwitchAckEvent{ChannelIndex: int32(targetIndex), X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z})
	s.deps.Broadcast.BroadcastSpawn(newCh, p.Position.X, p.Position.Z, EntitySpawnEvent{
		EntityID: uint64(p.ID), IsPlayer: true, Name: p.Name,
		X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z,
	})
}

func decodeEquipPayload(payload []byte) (string, int, bool) {
	if len(payload) < 2 {
		return "", 0, false
	}
	nameLen := int(binary.BigEndian.Uint16(payload[0:2]))
	if len(payload) < 2+nameLen+4 {
		return "", 0, false
	}
	slotType := string(payload[2 : 2+nameLen])
	invSlot := int(binary.BigEndian.Uint32(payload[2+nameLen : 2+nameLen+4]))
	return slotType, invSlot, true
}
