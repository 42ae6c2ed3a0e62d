package auth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles credential endpoints per client IP.
// A zero or negative perMinute disables limiting.
type RateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing perMinute attempts per IP.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      rate.Limit(float64(perMinute) / 60.0),
		burst:      perMinute,
		staleAfter: 10 * time.Minute,
	}
}

// Allow reports whether the request's client may attempt authentication.
// A nil limiter always allows.
func (l *RateLimiter) Allow(r *http.Request) bool {
	if l == nil {
		return true
	}

	ip := clientIP(r)

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()

	// Opportunistic cleanup keeps the map bounded without a background
	// goroutine.
	if len(l.visitors) > 1000 {
		l.evictStaleLocked()
	}

	return v.limiter.Allow()
}

func (l *RateLimiter) evictStaleLocked() {
	cutoff := time.Now().Add(-l.staleAfter)
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

// clientIP extracts the client address, ignoring the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
