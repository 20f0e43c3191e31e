// Package netio implements the dual TCP/UDP transport layer: the TCP
// accept loop and per-connection session (a reader goroutine, plus
// buffered writes staged and flushed from the tick goroutine), and the UDP listener (rate
// gate, session lookup, HMAC verification, sequence gate). Grounded on
// the teacher's internal/net/server.go and session.go goroutine
// structure, generalized from L1J's cipher/fixed-handshake protocol to
// spec.md §6.1's bit-exact framing. Sessions record activity (Touch,
// IdleSince) but nothing in this package closes idle connections.
package netio

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/queue"
	"github.com/shardwell/worldcore/internal/wire"
)

// SessionState tracks where a connection is in its lifecycle, mirroring
// the teacher's packet.SessionState enum.
type SessionState int32

const (
	StatePreAuth SessionState = iota
	StateAuthenticated
	StateInWorld
	StateDisconnecting
)

// Session is one live TCP connection. Reads happen on a dedicated
// goroutine that decodes frames and pushes them onto the shared input
// queue; writes are staged into a buffered writer during the tick and
// flushed in one syscall per touched session at tick end (spec.md §4.9).
type Session struct {
	ID        uint64
	AccountID int64
	conn      net.Conn

	state atomic.Int32

	writeMu  sync.Mutex
	writer   *bufio.Writer
	touched  atomic.Bool

	lastActivity atomic.Int64 // unix nanos

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

// NewSession wraps an accepted connection.
func NewSession(conn net.Conn, id uint64, log *zap.Logger) *Session {
	s := &Session{
		ID:      id,
		conn:    conn,
		writer:  bufio.NewWriter(conn),
		closeCh: make(chan struct{}),
		log:     log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(StatePreAuth))
	s.Touch()
	return s
}

func (s *Session) State() SessionState      { return SessionState(s.state.Load()) }
func (s *Session) SetState(st SessionState) { s.state.Store(int32(st)) }

// RemoteIP returns the connection's peer address, host only.
func (s *Session) RemoteIP() string { return remoteIP(s.conn) }

// Touch records activity, read back by IdleSince.
func (s *Session) Touch() { s.lastActivity.Store(time.Now().UnixNano()) }

// IdleSince reports how long it has been since the last recorded activity.
func (s *Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActivity.Load()))
}

// Stage writes a frame into the session's buffered writer without
// flushing — the staging half of the broadcast service's two-phase
// outbound model. Safe to call from the tick goroutine only.
func (s *Session) Stage(op wire.Opcode, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := wire.WriteFrame(s.writer, op, payload); err != nil {
		return err
	}
	s.touched.Store(true)
	return nil
}

// Flush performs the single syscall that drains this tick's staged
// writes, if any were made. No-op if nothing was staged.
func (s *Session) Flush() error {
	if !s.touched.CompareAndSwap(true, false) {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writer.Flush()
}

// ReadLoop decodes frames off the connection and pushes them onto q until
// the connection errors or closes. Runs on its own goroutine.
func (s *Session) ReadLoop(q *queue.Queue, malformed func()) {
	defer s.Close()
	for {
		op, payload, err := wire.ReadFrame(s.conn)
		if err != nil {
			return
		}
		s.Touch()
		q.Push(queue.Packet{
			AccountID:   s.AccountID,
			Opcode:      op,
			Payload:     payload,
			SessionID:   s.ID,
			ReceiveTime: time.Now(),
		})
		_ = malformed // hook retained for the caller's malformed-frame rate accounting
	}
}

// Close shuts the connection down exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool { return s.closed.Load() }

// Done returns a channel closed when the session terminates.
func (s *Session) Done() <-chan struct{} { return s.closeCh }
