// Package queue implements the single multi-producer/single-consumer input
// queue that I/O workers deposit framed packets into and the tick drains.
package queue

import (
	"time"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/wire"
)

// Packet is one decoded inbound frame, tagged with the session it arrived
// on and when it was received.
type Packet struct {
	AccountID   int64
	Opcode      wire.Opcode
	Payload     []byte
	SessionID   uint64
	ReceiveTime time.Time
}

// Queue is a bounded FIFO channel wrapper. Producers (I/O workers) block
// when the channel is full rather than dropping frames; a separate
// watermark check lets the tick log when the queue is growing dangerously
// deep, without changing the blocking semantics producers rely on.
type Queue struct {
	ch        chan Packet
	watermark int
	log       *zap.Logger
}

// New creates a queue with the given capacity. watermark should be smaller
// than capacity; Depth() exceeding it is a caller-visible warning signal,
// not an enforced drop (spec.md §4.5 reserves dropping for genuine overflow
// at a separately configured cap, which callers enforce with TryPush).
func New(capacity, watermark int, log *zap.Logger) *Queue {
	return &Queue{
		ch:        make(chan Packet, capacity),
		watermark: watermark,
		log:       log,
	}
}

// Push blocks until there is room for pkt. This is the default producer
// path: ordering and delivery matter more than instantaneous latency.
func (q *Queue) Push(pkt Packet) {
	q.ch <- pkt
	if d := q.Depth(); d > q.watermark {
		q.log.Warn("input queue above watermark", zap.Int("depth", d), zap.Int("watermark", q.watermark))
	}
}

// TryPush attempts a non-blocking enqueue, returning false (and logging) if
// the queue is completely full — the explicit drop-and-log path spec.md
// §4.5 calls out as the unbounded-growth guard.
func (q *Queue) TryPush(pkt Packet) bool {
	select {
	case q.ch <- pkt:
		return true
	default:
		q.log.Warn("input queue full, dropping packet",
			zap.Uint64("session", pkt.SessionID),
			zap.Uint16("opcode", uint16(pkt.Opcode)))
		return false
	}
}

// Drain removes and returns every packet currently queued, preserving FIFO
// order. Called once per tick by the sole consumer.
func (q *Queue) Drain() []Packet {
	n := len(q.ch)
	if n == 0 {
		return nil
	}
	out := make([]Packet, 0, n)
	for i := 0; i < n; i++ {
		select {
		case p := <-q.ch:
			out = append(out, p)
		default:
			return out
		}
	}
	return out
}

// Depth reports the current number of queued packets.
func (q *Queue) Depth() int { return len(q.ch) }
