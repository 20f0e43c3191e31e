package netio

import (
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/queue"
	"github.com/shardwell/worldcore/internal/session"
	"github.com/shardwell/worldcore/internal/wire"
)

var mockUDPAddr = net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 40000}

func TestUDPRateLimiterResetsEachSecond(t *testing.T) {
	rl := newUDPRateLimiter(2)
	now := time.Now()

	if !rl.Allow("1.2.3.4", now) {
		t.Fatalf("expected first packet allowed")
	}
	if !rl.Allow("1.2.3.4", now) {
		t.Fatalf("expected second packet allowed")
	}
	if rl.Allow("1.2.3.4", now) {
		t.Fatalf("expected third packet in the same window to be denied")
	}
	if !rl.Allow("1.2.3.4", now.Add(2*time.Second)) {
		t.Fatalf("expected window reset to allow a new packet")
	}
}

func TestUDPServerHandleDatagramPushesVerifiedPacket(t *testing.T) {
	registry := session.NewRegistry()
	sess, err := session.NewSession(1, 1, "127.0.0.1")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := registry.Login(sess); err != nil {
		t.Fatalf("Login: %v", err)
	}

	q := queue.New(8, 4, zap.NewNop())
	srv := &UDPServer{
		registry: registry,
		q:        q,
		limiter:  newUDPRateLimiter(100),
		log:      zap.NewNop(),
	}

	raw, err := wire.Seal(sess.Token, 1, wire.OpMovementInput, []byte("abcd"), sess.HMACSecret[:])
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	srv.handleDatagram(raw, &mockUDPAddr)

	pkts := q.Drain()
	if len(pkts) != 1 {
		t.Fatalf("expected one packet queued, got %d", len(pkts))
	}
	if pkts[0].AccountID != 1 || pkts[0].Opcode != wire.OpMovementInput {
		t.Fatalf("unexpected packet contents: %+v", pkts[0])
	}
}

func TestUDPServerHandleDatagramDropsBadHMAC(t *testing.T) {
	registry := session.NewRegistry()
	sess, err := session.NewSession(1, 1, "127.0.0.1")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := registry.Login(sess); err != nil {
		t.Fatalf("Login: %v", err)
	}

	q := queue.New(8, 4, zap.NewNop())
	srv := &UDPServer{
		registry: registry,
		q:        q,
		limiter:  newUDPRateLimiter(100),
		log:      zap.NewNop(),
	}

	var wrongSecret [32]byte
	raw, err := wire.Seal(sess.Token, 1, wire.OpMovementInput, []byte("abcd"), wrongSecret[:])
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	srv.handleDatagram(raw, &mockUDPAddr)

	if len(q.Drain()) != 0 {
		t.Fatalf("expected no packet queued for a forged datagram")
	}
}
