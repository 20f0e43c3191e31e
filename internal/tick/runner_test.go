package tick

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

type recordingSystem struct {
	phase Phase
	calls *[]Phase
}

func (s recordingSystem) Phase() Phase { return s.phase }
func (s recordingSystem) Update(now time.Time, dt time.Duration) {
	*s.calls = append(*s.calls, s.phase)
}

func TestRunnerExecutesSystemsInPhaseOrder(t *testing.T) {
	var calls []Phase
	r := NewRunner(zap.NewNop(), nil)
	r.Register(recordingSystem{phase: PhaseBroadcast, calls: &calls})
	r.Register(recordingSystem{phase: PhaseInput, calls: &calls})
	r.Register(recordingSystem{phase: PhaseCombat, calls: &calls})
	r.Register(recordingSystem{phase: PhaseAI, calls: &calls})

	r.Tick(time.Now(), 50*time.Millisecond)

	want := []Phase{PhaseInput, PhaseAI, PhaseCombat, PhaseBroadcast}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i, p := range want {
		if calls[i] != p {
			t.Fatalf("call %d: expected phase %s, got %s", i, p, calls[i])
		}
	}
}

type fakeObserver struct {
	durations []time.Duration
	depths    []int
}

func (f *fakeObserver) ObserveTickDuration(d time.Duration) { f.durations = append(f.durations, d) }
func (f *fakeObserver) ObserveQueueDepth(n int)              { f.depths = append(f.depths, n) }

func TestRunnerReportsTickDuration(t *testing.T) {
	obs := &fakeObserver{}
	r := NewRunner(zap.NewNop(), obs)
	r.Tick(time.Now(), 50*time.Millisecond)
	if len(obs.durations) != 1 {
		t.Fatalf("expected one observed duration, got %d", len(obs.durations))
	}
}
