// Package wire implements the core's bit-exact wire protocol: length-prefixed
// TCP frames and HMAC-sealed UDP datagrams.
package wire

// Opcode identifies a TCP frame's payload schema. Values are grouped by
// subsystem and are stable across releases.
type Opcode uint16

const (
	OpLogin          Opcode = 0x0001
	OpRegister       Opcode = 0x0002
	OpCharacterList  Opcode = 0x0003
	OpCharacterSel   Opcode = 0x0004
	OpCharacterCreate Opcode = 0x0005
	OpCharacterDelete Opcode = 0x0006
	OpEnterWorld     Opcode = 0x0007

	OpMovementInput      Opcode = 0x0101
	OpPositionBroadcast  Opcode = 0x0102
	OpPositionCorrection Opcode = 0x0103

	OpSelectTarget    Opcode = 0x0201
	OpUseSkill        Opcode = 0x0202
	OpDamageEvent     Opcode = 0x0203
	OpEntityDeath     Opcode = 0x0204
	OpXPGain          Opcode = 0x0205
	OpAutoAttackToggle Opcode = 0x0206
	OpPlayerRespawn   Opcode = 0x0207

	OpEntitySpawn      Opcode = 0x0301
	OpEntityDespawn    Opcode = 0x0302
	OpEntityStatsUpdate Opcode = 0x0303

	OpInventory   Opcode = 0x0401
	OpEquip       Opcode = 0x0402
	OpUnequip     Opcode = 0x0403
	OpVendorBuy   Opcode = 0x0404
	OpVendorSell  Opcode = 0x0405
	OpGoldUpdate  Opcode = 0x0406
	OpStatAllocate Opcode = 0x0407
	OpLootPickup  Opcode = 0x0408
	OpGroundLootSpawn   Opcode = 0x0409
	OpGroundLootDespawn Opcode = 0x040A

	OpChatIn        Opcode = 0x0501
	OpChatBroadcast Opcode = 0x0502

	OpHeartbeat     Opcode = 0x0601
	OpServerMessage Opcode = 0x0602
	OpErrorResponse Opcode = 0x0603

	OpZoneData      Opcode = 0x0701
	OpChannelSwitch Opcode = 0x0702
	OpChannelList   Opcode = 0x0703
)
