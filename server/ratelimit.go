package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an idle client's bucket is kept
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*limiterEntry
	now     func() time.Time
}

// newClientLimiter returns nil when perSecond <= 0 (unlimited)
func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// allow reports whether key may make a request now. A nil limiter allows everything.
func (c *clientLimiter) allow(key string) bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.clients[key]
	if !ok {
		if len(c.clients) >= 1024 {
			c.pruneLocked(now)
		}
		e = &limiterEntry{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (c *clientLimiter) pruneLocked(now time.Time) {
	for key, e := range c.clients {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(c.clients, key)
		}
	}
}
