// Package session manages the session/heartbeat registry: session tokens
// and their HMAC secrets for UDP lookup, and the account-to-session reverse
// index that enforces single-login (§4.2). JWT verification of the login
// collaborator's token lives in internal/external, not here.
package session

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/shardwell/worldcore/internal/wire"
)

// Session is the server's record of one authenticated connection. The
// token/secret pair is generated with a cryptographic RNG (crypto/rand),
// never github.com/google/uuid — see DESIGN.md for why.
type Session struct {
	Token       wire.SessionToken
	HMACSecret  [32]byte
	AccountID   int64
	CharacterID int64
	TCPSessionID uint64
	OriginIP    string
	CreatedAt   time.Time

	mu           sync.Mutex
	lastUDPSeq   uint32
	hasUDPSeq    bool
	lastHeartbeat time.Time
}

// NewSession mints a fresh session token and HMAC secret using a
// cryptographic RNG, per spec.md §3.
func NewSession(accountID int64, tcpSessionID uint64, originIP string) (*Session, error) {
	s := &Session{
		AccountID:    accountID,
		TCPSessionID: tcpSessionID,
		OriginIP:     originIP,
		CreatedAt:    time.Now(),
	}
	if _, err := rand.Read(s.Token[:]); err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	if _, err := rand.Read(s.HMACSecret[:]); err != nil {
		return nil, fmt.Errorf("generate hmac secret: %w", err)
	}
	s.lastHeartbeat = s.CreatedAt
	return s, nil
}

// AcceptUDPSequence implements testable property 2: a sequence is
// accepted only if strictly greater than the last accepted one. Accepted
// sequences form a strictly-increasing suffix per session.
func (s *Session) AcceptUDPSequence(seq uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasUDPSeq && seq <= s.lastUDPSeq {
		return false
	}
	s.lastUDPSeq = seq
	s.hasUDPSeq = true
	return true
}

// Heartbeat records a liveness signal.
func (s *Session) Heartbeat(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeat = now
}

// IdleSince reports how long it has been since the last heartbeat.
func (s *Session) IdleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastHeartbeat)
}
