// Package metrics exposes the core's tick-duration and queue-depth
// observability via prometheus/client_golang, pack-sourced from
// annel0-mmo-game's go.mod (the teacher carries no metrics dependency).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observer implements tick.TickObserver, recording per-tick timing and
// input-queue depth as Prometheus series.
type Observer struct {
	tickDuration prometheus.Histogram
	queueDepth   prometheus.Gauge
}

// NewObserver registers the tick-duration histogram and queue-depth gauge
// against reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "worldcore",
			Subsystem: "tick",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of each tick loop pass.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "worldcore",
			Subsystem: "input",
			Name:      "queue_depth",
			Help:      "Number of packets currently queued awaiting tick processing.",
		}),
	}
}

func (o *Observer) ObserveTickDuration(d time.Duration) {
	o.tickDuration.Observe(d.Seconds())
}

func (o *Observer) ObserveQueueDepth(depth int) {
	o.queueDepth.Set(float64(depth))
}
