package anticheat

import (
	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/world"
)

const opStatAllocate = uint16(0x0407) // wire.OpStatAllocate

// ValidateStatAllocate implements the stat-redistribution rule of
// spec.md §4.11: the sum of the requested STR/STA/DEX/INT increments
// must exactly equal the unspent-points cost being spent, and must not
// exceed the player's currently unspent points.
func ValidateStatAllocate(p *world.Player, strDelta, staDelta, dexDelta, intDelta, cost int32) *errs.Error {
	sum := strDelta + staDelta + dexDelta + intDelta
	if sum != cost {
		return errs.New(errs.Validation, errs.CodeStatOverdraw, opStatAllocate)
	}
	if cost > p.Stats.UnspentPoints {
		return errs.New(errs.Validation, errs.CodeStatOverdraw, opStatAllocate)
	}
	if strDelta < 0 || staDelta < 0 || dexDelta < 0 || intDelta < 0 {
		return errs.New(errs.Validation, errs.CodeStatOverdraw, opStatAllocate)
	}
	return nil
}

// ApplyStatAllocate commits a validated allocation.
func ApplyStatAllocate(p *world.Player, strDelta, staDelta, dexDelta, intDelta, cost int32) {
	p.Stats.STR += strDelta
	p.Stats.STA += staDelta
	p.Stats.DEX += dexDelta
	p.Stats.INT += intDelta
	p.Stats.UnspentPoints -= cost
	p.MarkDirty()
}
