package middleware_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/config"
	"github.com/km-arc/fastie/framework/http/middleware"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLimiter(n int, window time.Duration, clk *clock) *middleware.RateLimit {
	cfg := &config.Config{HTTP: config.HTTPConfig{RateLimitRequests: n, RateLimitWindow: window}}
	return middleware.NewRateLimit(cfg, zap.NewNop()).WithClock(clk.now)
}

func fromIP(ip string) *http.Request {
	req := get("/")
	req.RemoteAddr = ip + ":1234"
	return req
}

func TestRateLimit_HeadersAndExhaustion(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	h := newLimiter(3, time.Minute, clk).Handle(http.HandlerFunc(okHandler))

	for want := 2; want >= 0; want-- {
		rr := serve(h, fromIP("10.0.0.1"))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "3", rr.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(want), rr.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, strconv.FormatInt(clk.t.Add(time.Minute).Unix(), 10), rr.Header().Get("X-RateLimit-Reset"))
	}

	rr := serve(h, fromIP("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.JSONEq(t, `{"message":"Rate limit exceeded"}`, rr.Body.String())

	// Other clients have their own budget.
	assert.Equal(t, http.StatusOK, serve(h, fromIP("10.0.0.2")).Code)
}

func TestRateLimit_Refills(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	h := newLimiter(2, time.Minute, clk).Handle(http.HandlerFunc(okHandler))

	serve(h, fromIP("10.0.0.1"))
	serve(h, fromIP("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, serve(h, fromIP("10.0.0.1")).Code)

	clk.advance(30 * time.Second)
	assert.Equal(t, http.StatusOK, serve(h, fromIP("10.0.0.1")).Code)
}

func TestRateLimit_Sweep(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	rl := newLimiter(5, time.Minute, clk)
	h := rl.Handle(http.HandlerFunc(okHandler))

	serve(h, fromIP("10.0.0.1"))
	clk.advance(45 * time.Second)
	serve(h, fromIP("10.0.0.2"))
	require.Equal(t, 2, rl.Clients())

	clk.advance(30 * time.Second)
	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 1, rl.Clients())
}

func TestRateLimit_IgnoresForwardedFor(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	rl := newLimiter(1, time.Hour, clk)
	h := rl.Handle(http.HandlerFunc(okHandler))

	blocked := 0
	for i := range 50 {
		req := fromIP("198.51.100.7")
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		if serve(h, req).Code == http.StatusTooManyRequests {
			blocked++
		}
	}
	assert.Equal(t, 49, blocked)
	assert.Equal(t, 1, rl.Clients())
}

func TestRateLimit_SweepsIdleClientsOnRequestPath(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	rl := newLimiter(10, time.Minute, clk)
	h := rl.Handle(http.HandlerFunc(okHandler))

	for i := range 500 {
		serve(h, fromIP("10.1."+strconv.Itoa(i/250)+"."+strconv.Itoa(i%250)))
		clk.advance(time.Second)
	}
	// Each sweep keeps at most two windows of distinct clients.
	assert.LessOrEqual(t, rl.Clients(), 120)
	assert.Greater(t, rl.Clients(), 0)
}
