package netio

import (
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/queue"
)

// Server accepts TCP connections and hands them to the game loop through
// channels, enforcing the total and per-IP connection caps from spec.md
// §5. Grounded on the teacher's internal/net/server.go accept-loop shape.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64

	newConns chan *Session
	deadCh   chan uint64

	maxTotal   int
	maxPerIP   int
	totalConns atomic.Int64

	mu       sync.Mutex
	perIP    map[string]int

	q   *queue.Queue
	log *zap.Logger

	closeCh chan struct{}
}

// NewServer binds bindAddr and prepares the accept loop. q is the shared
// input queue every session's reader goroutine pushes decoded frames onto.
func NewServer(bindAddr string, maxTotal, maxPerIP int, q *queue.Queue, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uint64, 64),
		maxTotal: maxTotal,
		maxPerIP: maxPerIP,
		perIP:    make(map[string]int),
		q:        q,
		log:      log,
		closeCh:  make(chan struct{}),
	}, nil
}

// AcceptLoop runs on its own goroutine, accepting connections, enforcing
// connection caps, and launching each session's read loop.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		ip := remoteIP(conn)
		if !s.admit(ip) {
			s.log.Warn("connection rejected, over cap", zap.String("ip", ip))
			conn.Close()
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.log)
		go func() {
			sess.ReadLoop(s.q, nil)
			s.release(ip)
			s.NotifyDead(id)
		}()

		select {
		case s.newConns <- sess:
		default:
			s.log.Warn("new-connection queue full, dropping session", zap.Uint64("session", id))
			sess.Close()
		}
	}
}

func (s *Server) admit(ip string) bool {
	if int(s.totalConns.Load()) >= s.maxTotal {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.perIP[ip] >= s.maxPerIP {
		return false
	}
	s.perIP[ip]++
	s.totalConns.Add(1)
	return true
}

func (s *Server) release(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.perIP[ip] > 0 {
		s.perIP[ip]--
		if s.perIP[ip] == 0 {
			delete(s.perIP, ip)
		}
	}
	s.totalConns.Add(-1)
}

func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

// NewSessions returns the channel of newly accepted sessions.
func (s *Server) NewSessions() <-chan *Session { return s.newConns }

// NotifyDead reports a terminated session ID to the game loop.
func (s *Server) NotifyDead(sessionID uint64) {
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of terminated session IDs.
func (s *Server) DeadSessions() <-chan uint64 { return s.deadCh }

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }
