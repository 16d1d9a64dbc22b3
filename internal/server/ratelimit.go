package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/claude/replog/internal/apperr"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	maxVisitors = 4096
	visitorIdle = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	clock    clockwork.Clock
}

func newIPRateLimiter(perSecond float64, burst int, clock clockwork.Clock) *ipRateLimiter {
	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		clock:    clock,
	}
}

func (l *ipRateLimiter) allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= maxVisitors {
			l.evictIdle(now)
		}
		if len(l.visitors) >= maxVisitors {
			l.evictOldest()
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *ipRateLimiter) evictIdle(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(l.visitors, k)
		}
	}
}

// evictOldest drops the least recently seen visitor.
func (l *ipRateLimiter) evictOldest() {
	var oldest string
	var at time.Time
	for k, v := range l.visitors {
		if oldest == "" || v.lastSeen.Before(at) {
			oldest, at = k, v.lastSeen
		}
	}
	delete(l.visitors, oldest)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			s.metrics.RateLimitedTotal.Inc()
			w.Header().Set("Retry-After", "1")
			s.writeError(w, r, apperr.RateLimited())
			return
		}
		next.ServeHTTP(w, r)
	})
}
