package session

import (
	"sync"
	"time"

	"github.com/shardwell/worldcore/internal/wire"
)

// Registry is the process-wide session table: a token-keyed map for UDP
// HMAC lookups and an account-keyed reverse index that enforces at most
// one live session per account (spec.md §3, §4.2). The reverse index
// entry for an account is held through the post-disconnect force-flush
// window, so a racing re-login is denied until the flush completes
// (testable property 11).
type Registry struct {
	mu        sync.RWMutex
	byToken   map[wire.SessionToken]*Session
	byAccount map[int64]*Session
	flushing  map[int64]bool
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		byToken:   make(map[wire.SessionToken]*Session),
		byAccount: make(map[int64]*Session),
		flushing:  make(map[int64]bool),
	}
}

// ErrSessionBusy is returned by Login when the account already has a live
// session or its prior session is still inside its force-flush window.
type ErrSessionBusy struct{ AccountID int64 }

func (e *ErrSessionBusy) Error() string {
	return "session busy: force-flush in progress for this account"
}

// Login registers a new session for accountID, rejecting the attempt if a
// live session or an in-progress force-flush already claims the account.
func (r *Registry) Login(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.flushing[s.AccountID] {
		return &ErrSessionBusy{AccountID: s.AccountID}
	}
	if _, exists := r.byAccount[s.AccountID]; exists {
		return &ErrSessionBusy{AccountID: s.AccountID}
	}
	r.byAccount[s.AccountID] = s
	r.byToken[s.Token] = s
	return nil
}

// Lookup resolves a UDP session token to its session, for HMAC secret
// retrieval ahead of full datagram verification.
func (r *Registry) Lookup(token wire.SessionToken) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byToken[token]
	return s, ok
}

// BySession returns the session bound to accountID, if any.
func (r *Registry) BySession(accountID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byAccount[accountID]
	return s, ok
}

// BeginForceFlush marks accountID's reverse-index slot busy so Login is
// denied while a disconnect/zone-change flush is in flight. The session
// is removed from the token map immediately (no more UDP traffic should
// reach it) but the account slot stays held until EndForceFlush.
func (r *Registry) BeginForceFlush(accountID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byAccount[accountID]; ok {
		delete(r.byToken, s.Token)
	}
	r.flushing[accountID] = true
}

// EndForceFlush releases the account's reverse-index slot, permitting a
// new login.
func (r *Registry) EndForceFlush(accountID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byAccount, accountID)
	delete(r.flushing, accountID)
}

// IdleAccounts returns every account whose session has been heartbeat-
// silent for longer than timeout, for the idle watchdog to disconnect.
func (r *Registry) IdleAccounts(now time.Time, timeout time.Duration) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var idle []int64
	for acct, s := range r.byAccount {
		if s.IdleSince(now) > timeout {
			idle = append(idle, acct)
		}
	}
	return idle
}
