package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/diagnosis/concierge/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
	Idle              time.Duration                // Forget limiters unused for this long
	KeyFunc           func(r *http.Request) string // Defaults to the client IP
	SkipFunc          func(r *http.Request) bool   // Function to skip rate limiting
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key in memory
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	config   RateLimitConfig
	now      func() time.Time
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIP
	}
	if config.Idle == 0 {
		config.Idle = 10 * time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		config:   config,
		now:      time.Now,
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := rl.config.KeyFunc(r)
			if !rl.allow(key) {
				logger.WarnContext(r.Context(), "Rate limit exceeded", "key", key)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests. Try again later.",
					"code":  "RATE_LIMIT_EXCEEDED",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	e, ok := rl.limiters[key]
	if !ok {
		every := time.Minute / time.Duration(max(rl.config.RequestsPerMinute, 1))
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(every), rl.config.Burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Cleanup drops limiters that have been idle; returns how many were removed
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	n := 0
	for k, e := range rl.limiters {
		if now.Sub(e.lastSeen) > rl.config.Idle {
			delete(rl.limiters, k)
			n++
		}
	}
	return n
}

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP if there are multiple
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SkipHealth exempts the health probe from rate limiting
func SkipHealth(r *http.Request) bool {
	return r.URL.Path == "/healthz"
}
