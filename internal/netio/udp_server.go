package netio

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/anticheat"
	"github.com/shardwell/worldcore/internal/queue"
	"github.com/shardwell/worldcore/internal/session"
)

// UDPServer receives unauthenticated, latency-sensitive traffic (movement
// input) over a single shared socket. Every datagram is rate-gated per
// source IP, then passed through anticheat.VerifyDatagram (token lookup,
// HMAC, strictly-increasing sequence) before it ever reaches the input
// queue — a forged or replayed datagram never touches game state.
// Grounded on the context-cancellable ReadFromUDP poll loop in
// annel0-mmo-game's internal/network/udp_server.go, generalized from its
// ad hoc header to spec.md §6.1's sealed-datagram format.
type UDPServer struct {
	conn     *net.UDPConn
	registry *session.Registry
	q        *queue.Queue
	limiter  *udpRateLimiter
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewUDPServer binds bindAddr and prepares the receive loop. packetsPerIPPS
// is the per-source-IP datagram budget (spec.md §6.2 udp_max_packets_per_ip_per_sec).
func NewUDPServer(bindAddr string, registry *session.Registry, q *queue.Queue, packetsPerIPPS int, log *zap.Logger) (*UDPServer, error) {
	addr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &UDPServer{
		conn:     conn,
		registry: registry,
		q:        q,
		limiter:  newUDPRateLimiter(packetsPerIPPS),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// ReceiveLoop runs on its own goroutine until Stop is called.
func (s *UDPServer) ReceiveLoop() {
	buf := make([]byte, 2048)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			s.log.Warn("udp read failed", zap.Error(err))
			continue
		}

		s.handleDatagram(buf[:n], addr)
	}
}

func (s *UDPServer) handleDatagram(raw []byte, addr *net.UDPAddr) {
	now := time.Now()
	ip := addr.IP.String()
	if !s.limiter.Allow(ip, now) {
		s.log.Warn("udp packet rate exceeded, dropped", zap.String("ip", ip))
		return
	}

	dgram, sess, aerr := anticheat.VerifyDatagram(raw, s.registry)
	if aerr != nil {
		s.log.Debug("udp datagram rejected", zap.String("ip", ip), zap.Uint16("code", uint16(aerr.Code)))
		return
	}

	s.q.TryPush(queue.Packet{
		AccountID:   sess.AccountID,
		Opcode:      dgram.Opcode,
		Payload:     dgram.Payload,
		SessionID:   sess.TCPSessionID,
		ReceiveTime: now,
	})
}

// Stop terminates the receive loop and closes the socket.
func (s *UDPServer) Stop() {
	s.cancel()
	s.conn.Close()
}

// LocalAddr returns the bound UDP address.
func (s *UDPServer) LocalAddr() net.Addr { return s.conn.LocalAddr() }
