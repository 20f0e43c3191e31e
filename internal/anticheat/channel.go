package anticheat

import (
	"time"

	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/world"
)

const (
	opChannelSwitch = uint16(0x0702) // wire.OpChannelSwitch
)

// ValidateChannelSwitch enforces spec.md §4.11's per-player channel-
// switch cooldown and rejects a switch into an already-full channel.
func ValidateChannelSwitch(p *world.Player, target *world.Channel, now time.Time, cooldown time.Duration) *errs.Error {
	if now.Sub(p.LastChannelSwitch) < cooldown {
		return errs.New(errs.State, errs.CodeCooldownActive, opChannelSwitch)
	}
	if target.Full() {
		return errs.New(errs.Resource, errs.CodeChannelFull, opChannelSwitch)
	}
	return nil
}
