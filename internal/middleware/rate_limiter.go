package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mroshb/engage_app/internal/metrics"
	"github.com/mroshb/engage_app/pkg/errors"
	"github.com/mroshb/engage_app/pkg/logger"
)

// RateLimiter is a fixed-window in-memory limiter with separate budgets
// per authenticated user and per client IP.
type RateLimiter struct {
	userLimits map[string]*counter
	ipLimits   map[string]*counter
	mu         sync.Mutex

	userMaxRequests int
	ipMaxRequests   int
	window          time.Duration
	now             func() time.Time
	stop            chan struct{}
	stopOnce        sync.Once
}

type counter struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine.
// A max of zero or less disables that scope.
func NewRateLimiter(userMaxRequests, ipMaxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userLimits:      make(map[string]*counter),
		ipLimits:        make(map[string]*counter),
		userMaxRequests: userMaxRequests,
		ipMaxRequests:   ipMaxRequests,
		window:          window,
		now:             time.Now,
		stop:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// CheckUserLimit reports whether userID may make another request.
func (rl *RateLimiter) CheckUserLimit(userID string) bool {
	return rl.check(rl.userLimits, userID, rl.userMaxRequests)
}

// CheckIPLimit reports whether ip may make another request.
func (rl *RateLimiter) CheckIPLimit(ip string) bool {
	return rl.check(rl.ipLimits, ip, rl.ipMaxRequests)
}

func (rl *RateLimiter) check(limits map[string]*counter, key string, maxRequests int) bool {
	if maxRequests <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	limit, exists := limits[key]
	if !exists || now.After(limit.resetTime) {
		limits[key] = &counter{requests: 1, resetTime: now.Add(rl.window)}
		return true
	}

	if limit.requests >= maxRequests {
		return false
	}

	limit.requests++
	return true
}

// GetUserRemaining returns remaining requests for user
func (rl *RateLimiter) GetUserRemaining(userID string) int {
	return rl.remaining(rl.userLimits, userID, rl.userMaxRequests)
}

// GetIPRemaining returns remaining requests for IP
func (rl *RateLimiter) GetIPRemaining(ip string) int {
	return rl.remaining(rl.ipLimits, ip, rl.ipMaxRequests)
}

func (rl *RateLimiter) remaining(limits map[string]*counter, key string, maxRequests int) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := limits[key]
	if !exists || rl.now().After(limit.resetTime) {
		return maxRequests
	}

	remaining := maxRequests - limit.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

// cleanup removes expired entries
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, limit := range rl.userLimits {
				if now.After(limit.resetTime) {
					delete(rl.userLimits, key)
				}
			}
			for key, limit := range rl.ipLimits {
				if now.After(limit.resetTime) {
					delete(rl.ipLimits, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userLimits = make(map[string]*counter)
	rl.ipLimits = make(map[string]*counter)
}

// LimitByIP rejects requests once the client address exhausts its window.
// It expects chi's RealIP middleware to have normalised RemoteAddr.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.CheckIPLimit(ip) {
			rl.reject(w, "ip", rl.ipMaxRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LimitByUser must run after RequireAuth.
func (rl *RateLimiter) LimitByUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if ok && !rl.CheckUserLimit(identity.UserID) {
			rl.reject(w, "user", rl.userMaxRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) reject(w http.ResponseWriter, scope string, maxRequests int) {
	metrics.RateLimited.WithLabelValues(scope).Inc()
	logger.Debug("Rate limit exceeded", "scope", scope)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
	WriteError(w, errors.New(errors.ErrCodeRateLimitExceeded, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
