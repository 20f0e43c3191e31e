// Package tick drives the fixed-rate simulation loop: a phase-ordered
// system runner plus a double-buffered event bus, generalized from the
// teacher's core/system.Runner and core/event.Bus into the six ordered
// steps spec.md §4.6 requires (drain input, AI/combat/movement update,
// persistence scan, broadcast flush, tick accounting).
package tick

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Phase orders systems within a single tick. Systems in the same phase run
// in registration order; phases run in ascending numeric order.
type Phase int

const (
	PhaseInput Phase = iota
	PhaseAI
	PhaseCombat
	PhaseMovement
	PhasePersistence
	PhaseBroadcast
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseAI:
		return "ai"
	case PhaseCombat:
		return "combat"
	case PhaseMovement:
		return "movement"
	case PhasePersistence:
		return "persistence"
	case PhaseBroadcast:
		return "broadcast"
	default:
		return "unknown"
	}
}

// System is one unit of per-tick work, run at its declared Phase.
type System interface {
	Phase() Phase
	Update(now time.Time, dt time.Duration)
}

type registered struct {
	phase Phase
	sys   System
}

// Runner holds the registered systems and runs them phase-ordered once per
// tick, recording how long each tick actually took.
type Runner struct {
	systems []registered
	log     *zap.Logger
	metrics TickObserver
}

// TickObserver receives per-tick timing so the metrics package can expose
// it without tick depending on prometheus directly.
type TickObserver interface {
	ObserveTickDuration(d time.Duration)
	ObserveQueueDepth(depth int)
}

type noopObserver struct{}

func (noopObserver) ObserveTickDuration(time.Duration) {}
func (noopObserver) ObserveQueueDepth(int)              {}

// NewRunner creates an empty Runner. Pass a nil observer to skip metrics.
func NewRunner(log *zap.Logger, observer TickObserver) *Runner {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Runner{log: log, metrics: observer}
}

// Register adds a system to the runner at its declared phase. Registration
// order is preserved as a stable tiebreaker within a phase.
func (r *Runner) Register(sys System) {
	r.systems = append(r.systems, registered{phase: sys.Phase(), sys: sys})
	sort.SliceStable(r.systems, func(i, j int) bool {
		return r.systems[i].phase < r.systems[j].phase
	})
}

// Tick runs every registered system once, in phase order, and reports the
// wall-clock duration to the configured observer.
func (r *Runner) Tick(now time.Time, dt time.Duration) time.Duration {
	start := time.Now()
	for _, reg := range r.systems {
		reg.sys.Update(now, dt)
	}
	elapsed := time.Since(start)
	r.metrics.ObserveTickDuration(elapsed)
	if elapsed > dt {
		r.log.Warn("tick exceeded budget", zap.Duration("elapsed", elapsed), zap.Duration("budget", dt))
	}
	return elapsed
}
