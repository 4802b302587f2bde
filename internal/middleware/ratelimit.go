package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Idle buckets are swept once this many clients are tracked.
	clientGCThreshold = 1000
	defaultMaxClients = 10000
)

type clientLimiter struct {
	general  *rate.Limiter
	pin      *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps per-client token buckets. PIN attempts have their
// own, stricter bucket; a general limit of zero or less disables the other.
type RateLimitMiddleware struct {
	generalRPM int
	pinRPM     int
	pinPath    string
	mu         sync.Mutex
	clients    map[string]*clientLimiter
	maxClients int
	now        func() time.Time
}

func NewRateLimitMiddleware(generalRPM int, pinRPM int, pinPath string) *RateLimitMiddleware {
	if pinRPM <= 0 {
		pinRPM = 10
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		pinRPM:     pinRPM,
		pinPath:    pinPath,
		clients:    map[string]*clientLimiter{},
		maxClients: defaultMaxClients,
		now:        time.Now,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := m.getLimiter(clientIPFrom(r))

		target := limiter.general
		if r.URL.Path == m.pinPath {
			target = limiter.pin
		}

		if target != nil && !target.Allow() {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = now
		m.gcLocked(now)
		return limiter
	}

	m.gcLocked(now)
	if len(m.clients) >= m.maxClients {
		m.evictOldestLocked()
	}

	created := &clientLimiter{
		general:  perMinute(m.generalRPM),
		pin:      perMinute(m.pinRPM),
		lastSeen: now,
	}
	m.clients[clientIP] = created

	return created
}

func (m *RateLimitMiddleware) gcLocked(now time.Time) {
	if len(m.clients) < clientGCThreshold {
		return
	}

	cutoff := now.Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

// evictOldestLocked keeps the table bounded when many clients are active at once.
func (m *RateLimitMiddleware) evictOldestLocked() {
	var (
		oldestIP string
		oldest   time.Time
	)
	for ip, limiter := range m.clients {
		if oldestIP == "" || limiter.lastSeen.Before(oldest) {
			oldestIP, oldest = ip, limiter.lastSeen
		}
	}
	delete(m.clients, oldestIP)
}

func perMinute(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}
