package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http/response"
)

// RateLimiter keeps a token bucket per key
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idle    time.Duration
	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute per key.
// A non-positive budget returns nil, which the middleware treats as disabled.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		idle:    5 * time.Minute,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether a request for key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiterFor(key).AllowN(rl.now(), 1)
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.clients[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	// new keys trigger a sweep of idle ones
	for k, entry := range rl.clients {
		if now.Sub(entry.lastSeen) > rl.idle {
			delete(rl.clients, k)
		}
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.clients[key] = &clientLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

// RateLimitMiddleware rejects requests over budget with RATE_LIMITED
func RateLimitMiddleware(limiter *RateLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r)) {
				response.Error(w, http.StatusTooManyRequests, response.CodeRateLimited, "too many requests, please slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIPKey extracts the client IP for rate limiting. Behind chi's RealIP, RemoteAddr already holds the forwarded address.
func GetIPKey(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return "ip:" + addr
}
