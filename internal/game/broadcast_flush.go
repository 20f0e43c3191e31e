package game

import (
	"time"

	"github.com/shardwell/worldcore/internal/tick"
)

// BroadcastFlushSystem performs the single end-of-tick flush pass of
// spec.md §4.9: every socket staged into during this tick gets exactly
// one write syscall.
type BroadcastFlushSystem struct {
	deps *Deps
}

func NewBroadcastFlushSystem(deps *Deps) *BroadcastFlushSystem {
	return &BroadcastFlushSystem{deps: deps}
}

func (s *BroadcastFlushSystem) Phase() tick.Phase { return tick.PhaseBroadcast }

func (s *BroadcastFlushSystem) Update(now time.Time, dt time.Duration) {
	s.deps.Broadcast.FlushTouched()
	s.deps.Bus.Swap()
}
