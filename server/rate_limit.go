package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ipBucketTTL   = 5 * time.Minute
	pruneInterval = time.Minute
)

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client ip. Idle buckets are
// dropped on a later call.
type ipRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*ipBucket
	rps       rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		buckets:   make(map[string]*ipBucket),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastPrune: time.Now(),
		now:       time.Now,
	}
}

func (l *ipRateLimiter) Allow(ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > pruneInterval {
		for key, b := range l.buckets {
			if now.Sub(b.lastSeen) > ipBucketTTL {
				delete(l.buckets, key)
			}
		}
		l.lastPrune = now
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}
