package game

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/shardwell/worldcore/internal/combat"
	"github.com/shardwell/worldcore/internal/wire"
)

// PositionCorrectionEvent carries the authoritative position the server
// is forcing a client back onto, per spec.md §4.6 rule 2.
type PositionCorrectionEvent struct {
	X, Y, Z float64
}

// PositionUpdateEvent carries one entity's latest position for the
// per-tick broadcast pass.
type PositionUpdateEvent struct {
	EntityID uint64
	X, Y, Z  float64
}

// ErrorEvent is the client-facing ErrorResponse envelope for a rejected
// action, carrying the taxonomy Code from internal/errs (spec.md §7).
type ErrorEvent struct {
	Code uint16
}

// LoginAckEvent carries the freshly minted session token and HMAC secret
// a client needs to address UDP datagrams to this server (spec.md §3).
type LoginAckEvent struct {
	Token  [8]byte
	Secret [32]byte
}

// CharacterSummaryEntry is one row of a CharacterListEvent.
type CharacterSummaryEntry struct {
	CharacterID int64
	Name        string
	ClassID     int32
	Level       int32
}

// CharacterListEvent answers OpCharacterList with every character on the
// account.
type CharacterListEvent struct {
	Characters []CharacterSummaryEntry
}

// ZoneDataEvent answers OpEnterWorld with the player's authoritative
// self-snapshot once placed in the world.
type ZoneDataEvent struct {
	EntityID uint64
	ZoneID   string
	X, Y, Z  float64

	HP, MaxHP int32
	MP, MaxMP int32
	Level     int32
	XP        int64
	Gold      int64

	STR, STA, DEX, INT int32
	UnspentPoints      int32
}

// EntitySpawnEvent notifies nearby players of a new entity entering
// their interest set.
type EntitySpawnEvent struct {
	EntityID uint64
	IsPlayer bool
	Name     string
	X, Y, Z  float64
}

// EntityDespawnEvent notifies nearby players an entity has left their
// interest set.
type EntityDespawnEvent struct {
	EntityID uint64
}

// ChatBroadcastEvent fans a chat line out to a channel's recipients.
type ChatBroadcastEvent struct {
	SenderID   uint64
	SenderName string
	Scope      uint8
	Text       string
}

// GoldUpdateEvent notifies the owning player of a balance change.
type GoldUpdateEvent struct {
	Gold int64
}

// RegisterAckEvent answers a successful OpRegister with the newly created
// account ID; a failed registration is answered with an ErrorEvent instead.
type RegisterAckEvent struct {
	AccountID int64
}

// ChannelEntry is one row of a ChannelListEvent.
type ChannelEntry struct {
	Index     int32
	Occupancy int32
	Capacity  int32
}

// ChannelListEvent answers OpChannelList with every channel of the
// requesting player's current zone.
type ChannelListEvent struct {
	Channels []ChannelEntry
}

// ChannelSwitchAckEvent answers OpChannelSwitch once the player has been
// re-placed into the target channel.
type ChannelSwitchAckEvent struct {
	ChannelIndex int32
	X, Y, Z      float64
}

// PlayerRespawnEvent notifies a player it has been revived at its zone's
// default spawn after a death (spec.md §4.7).
type PlayerRespawnEvent struct {
	X, Y, Z float64
	HP, MP  int32
}

// GroundLootSpawnEvent notifies nearby players that a killed monster
// dropped an item stack at a fixed position.
type GroundLootSpawnEvent struct {
	LootID int64
	ItemID int32
	Count  int32
	X, Y, Z float64
}

// GroundLootDespawnEvent notifies nearby players a ground-loot entry has
// been picked up.
type GroundLootDespawnEvent struct {
	LootID int64
}

func putFloat64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func putInt64(buf *bytes.Buffer, v int64) { putUint64(buf, uint64(v)) }

// putString writes a uint16 byte-length prefix followed by the raw UTF-8
// bytes, the variable-length convention every text field in this wire
// protocol uses.
func putString(buf *bytes.Buffer, s string) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(len(s)))
	buf.Write(b[:])
	buf.WriteString(s)
}

// Encode implements broadcast.Encoder over this server's concrete domain
// event types, binary-packing each with encoding/binary the same way
// internal/wire packs its own fixed fields.
func Encode(evt any) (wire.Opcode, []byte, error) {
	var buf bytes.Buffer
	switch e := evt.(type) {
	case PositionUpdateEvent:
		putUint64(&buf, e.EntityID)
		putFloat64(&buf, e.X)
		putFloat64(&buf, e.Y)
		putFloat64(&buf, e.Z)
		return wire.OpPositionBroadcast, buf.Bytes(), nil

	case PositionCorrectionEvent:
		putFloat64(&buf, e.X)
		putFloat64(&buf, e.Y)
		putFloat64(&buf, e.Z)
		return wire.OpPositionCorrection, buf.Bytes(), nil

	case combat.DamageEvent:
		putUint64(&buf, uint64(e.AttackerID))
		putUint64(&buf, uint64(e.TargetID))
		putInt32(&buf, e.Amount)
		if e.Crit {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return wire.OpDamageEvent, buf.Bytes(), nil

	case combat.EntityDeathEvent:
		putUint64(&buf, uint64(e.VictimID))
		putUint64(&buf, uint64(e.KillerID))
		return wire.OpEntityDeath, buf.Bytes(), nil

	case ErrorEvent:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], e.Code)
		buf.Write(b[:])
		return wire.OpErrorResponse, buf.Bytes(), nil

	case combat.XpGainEvent:
		putUint64(&buf, uint64(e.PlayerID))
		var amt [8]byte
		binary.BigEndian.PutUint64(amt[:], uint64(e.Amount))
		buf.Write(amt[:])
		return wire.OpXPGain, buf.Bytes(), nil

	case LoginAckEvent:
		buf.Write(e.Token[:])
		buf.Write(e.Secret[:])
		return wire.OpLogin, buf.Bytes(), nil

	case CharacterListEvent:
		var n [2]byte
		binary.BigEndian.PutUint16(n[:], uint16(len(e.Characters)))
		buf.Write(n[:])
		for _, c := range e.Characters {
			putInt64(&buf, c.CharacterID)
			putString(&buf, c.Name)
			putInt32(&buf, c.ClassID)
			putInt32(&buf, c.Level)
		}
		return wire.OpCharacterList, buf.Bytes(), nil

	case ZoneDataEvent:
		putUint64(&buf, e.EntityID)
		putString(&buf, e.ZoneID)
		putFloat64(&buf, e.X)
		putFloat64(&buf, e.Y)
		putFloat64(&buf, e.Z)
		putInt32(&buf, e.HP)
		putInt32(&buf, e.MaxHP)
		putInt32(&buf, e.MP)
		putInt32(&buf, e.MaxMP)
		putInt32(&buf, e.Level)
		putInt64(&buf, e.XP)
		putInt64(&buf, e.Gold)
		putInt32(&buf, e.STR)
		putInt32(&buf, e.STA)
		putInt32(&buf, e.DEX)
		putInt32(&buf, e.INT)
		putInt32(&buf, e.UnspentPoints)
		return wire.OpZoneData, buf.Bytes(), nil

	case EntitySpawnEvent:
		putUint64(&buf, e.EntityID)
		if e.IsPlayer {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		putString(&buf, e.Name)
		putFloat64(&buf, e.X)
		putFloat64(&buf, e.Y)
		putFloat64(&buf, e.Z)
		return wire.OpEntitySpawn, buf.Bytes(), nil

	case EntityDespawnEvent:
		putUint64(&buf, e.EntityID)
		return wire.OpEntityDespawn, buf.Bytes(), nil

	case ChatBroadcastEvent:
		putUint64(&buf, e.SenderID)
		putString(&buf, e.SenderName)
		buf.WriteByte(e.Scope)
		putString(&buf, e.Text)
		return wire.OpChatBroadcast, buf.Bytes(), nil

	case GoldUpdateEvent:
		putInt64(&buf, e.Gold)
		return wire.OpGoldUpdate, buf.Bytes(), nil

	case RegisterAckEvent:
		putInt64(&buf, e.AccountID)
		return wire.OpRegister, buf.Bytes(), nil

	case ChannelListEvent:
		var n [2]byte
		binary.BigEndian.PutUint16(n[:], uint16(len(e.Channels)))
		buf.Write(n[:])
		for _, c := range e.Channels {
			putInt32(&buf, c.Index)
			putInt32(&buf, c.Occupancy)
			putInt32(&buf, c.Capacity)
		}
		return wire.OpChannelList, buf.Bytes(), nil

	case ChannelSwitchAckEvent:
		putInt32(&buf, e.ChannelIndex)
		putFloat64(&buf, e.X)
		putFloat64(&buf, e.Y)
		putFloat64(&buf, e.Z)
		return wire.OpChannelSwitch, buf.Bytes(), nil

	case PlayerRespawnEvent:
		putFloat64(&buf, e.X)
		putFloat64(&buf, e.Y)
		putFloat64(&buf, e.Z)
		putInt32(&buf, e.HP)
		putInt32(&buf, e.MP)
		return wire.OpPlayerRespawn, buf.Bytes(), nil

	case GroundLootSpawnEvent:
		putInt64(&buf, e.LootID)
		putInt32(&buf, e.ItemID)
		putInt32(&buf, e.Count)
		putFloat64(&buf, e.X)
		putFloat64(&buf, e.Y)
		putFloat64(&buf, e.Z)
		return wire.OpGroundLootSpawn, buf.Bytes(), nil

	case GroundLootDespawnEvent:
		putInt64(&buf, e.LootID)
		return wire.OpGroundLootDespawn, buf.Bytes(), nil

	default:
		return 0, nil, fmt.Errorf("game: no encoder registered for event type %T", evt)
	}
}
