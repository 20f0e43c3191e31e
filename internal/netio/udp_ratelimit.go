package netio

import (
	"sync"
	"time"
)

// udpRateLimiter enforces a fixed per-second packet budget per source IP
// (config.NetworkConfig.UDPMaxPacketsPerIPPS), the same "reset every
// second" shape as the teacher's RateLimitConfig windows, specialized to
// a single counter per IP rather than per-account/per-action.
type udpRateLimiter struct {
	mu      sync.Mutex
	budget  int
	counts  map[string]int
	resetAt time.Time
}

func newUDPRateLimiter(packetsPerSecond int) *udpRateLimiter {
	return &udpRateLimiter{
		budget:  packetsPerSecond,
		counts:  make(map[string]int),
		resetAt: time.Now().Add(time.Second),
	}
}

// Allow reports whether one more datagram from ip is within budget for
// the current one-second window.
func (r *udpRateLimiter) Allow(ip string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.After(r.resetAt) {
		r.counts = make(map[string]int)
		r.resetAt = now.Add(time.Second)
	}

	r.counts[ip]++
	return r.counts[ip] <= r.budget
}
