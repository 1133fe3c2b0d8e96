package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/km-arc/fastie/framework/config"
	gohttp "github.com/km-arc/fastie/framework/http"
)

// RateLimit allows max requests per window for each client IP. Tokens refill
// continuously, so a client that waits window/max gets one request back.
//
// Clients are keyed by RemoteAddr, never by a forwarded header the client
// controls. Idle limiters are swept once per window on the request path.
type RateLimit struct {
	max    int
	window time.Duration
	log    *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*client
	swept   time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimit reads the limit and window from config.
func NewRateLimit(cfg *config.Config, log *zap.Logger) *RateLimit {
	return newRateLimit(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, log)
}

// DefaultRateLimit allows 100 requests per hour.
func DefaultRateLimit() *RateLimit { return newRateLimit(100, time.Hour, zap.NewNop()) }

func newRateLimit(max int, window time.Duration, log *zap.Logger) *RateLimit {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimit{
		max:     max,
		window:  window,
		log:     log.Named("ratelimit"),
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// WithClock replaces the time source, for tests.
func (m *RateLimit) WithClock(now func() time.Time) *RateLimit {
	m.now = now
	return m
}

func (m *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := gohttp.RemoteIP(r)
		now := m.now()
		allowed, remaining := m.take(ip, now)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(m.max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(m.window).Unix(), 10))

		if !allowed {
			m.log.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil((m.window / time.Duration(m.max)).Seconds()))))
			gohttp.WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimit) take(ip string, now time.Time) (bool, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.swept.IsZero() {
		m.swept = now
	} else if now.Sub(m.swept) >= m.window {
		m.sweep(now)
	}

	c, ok := m.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Every(m.window/time.Duration(m.max)), m.max)}
		m.clients[ip] = c
	}
	c.lastSeen = now

	if !c.limiter.AllowN(now, 1) {
		return false, 0
	}
	remaining := int(math.Floor(c.limiter.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining
}

// Sweep drops limiters idle for longer than a window; a fresh limiter starts
// full, which is the same state an idle one would have refilled to.
func (m *RateLimit) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweep(m.now())
}

func (m *RateLimit) sweep(now time.Time) int {
	m.swept = now
	cutoff := now.Add(-m.window)
	n := 0
	for ip, c := range m.clients {
		if c.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
			n++
		}
	}
	if n > 0 {
		m.log.Debug("Idle limiters swept", zap.Int("removed", n), zap.Int("tracked", len(m.clients)))
	}
	return n
}

// Clients returns the number of tracked IPs.
func (m *RateLimit) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
