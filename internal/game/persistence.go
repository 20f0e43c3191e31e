package game

import (
	"context"
	"time"

	"github.com/shardwell/worldcore/internal/tick"
	"github.com/shardwell/worldcore/internal/world"
)

// PersistenceSystem drives the tiered write-back cadence of spec.md §7:
// dirty players flush to the cache tier every RAMToCache interval, and
// the cache drains to the durable store every CacheToStore interval.
// Grounded on the teacher's system.PersistenceSystem batch-interval
// ticks, generalized to the two independently configured tiers.
type PersistenceSystem struct {
	deps *Deps

	lastCacheFlush time.Time
	lastStoreFlush time.Time
}

func NewPersistenceSystem(deps *Deps) *PersistenceSystem {
	return &PersistenceSystem{deps: deps}
}

func (s *PersistenceSystem) Phase() tick.Phase { return tick.PhasePersistence }

func (s *PersistenceSystem) Update(now time.Time, dt time.Duration) {
	if s.lastCacheFlush.IsZero() {
		s.lastCacheFlush = now
		s.lastStoreFlush = now
		return
	}

	ctx := context.Background()

	if now.Sub(s.lastCacheFlush) >= s.deps.RAMToCache {
		dirty := s.dirtyPlayers()
		if len(dirty) > 0 {
			s.deps.WriteBack.FlushDirtyToCache(ctx, dirty)
		}
		s.lastCacheFlush = now
	}

	if now.Sub(s.lastStoreFlush) >= s.deps.CacheToStore {
		s.deps.WriteBack.FlushCacheToStore(ctx)
		s.lastStoreFlush = now
	}
}

func (s *PersistenceSystem) dirtyPlayers() []*world.Player {
	var dirty []*world.Player
	s.deps.State.IterateChannels(func(zoneID string, ch *world.Channel) {
		for _, p := range ch.Players {
			if p.Dirty {
				dirty = append(dirty, p)
			}
		}
	})
	return dirty
}
