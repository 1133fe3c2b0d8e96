package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/config"
)

// Cache stores successful GET responses in memory. The TTL depends on the
// resource: users live 10 minutes, posts 30, everything else the default.
type Cache struct {
	store   *expirable.LRU[string, *cachedResponse]
	size    int
	ttl     time.Duration
	log     *zap.Logger
	now     func() time.Time
	bypass  []string
	perPath []pathTTL
}

type pathTTL struct {
	segment string
	ttl     time.Duration
}

type cachedResponse struct {
	status    int
	header    http.Header
	body      []byte
	storedAt  time.Time
	expiresAt time.Time
}

// CacheStats is reported by Stats.
type CacheStats struct {
	Total        int     `json:"total"`
	MaxSize      int     `json:"max_size"`
	UsagePercent float64 `json:"usage_percent"`
}

// NewCache reads the default TTL and capacity from config.
func NewCache(cfg *config.Config, log *zap.Logger) *Cache {
	return newCache(cfg.HTTP.CacheSize, cfg.HTTP.CacheTTL, log)
}

// DefaultCache keeps up to 1000 entries for 5 minutes.
func DefaultCache() *Cache { return newCache(1000, 5*time.Minute, zap.NewNop()) }

func newCache(size int, ttl time.Duration, log *zap.Logger) *Cache {
	if size <= 0 {
		size = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	perPath := []pathTTL{
		{"/users/", 10 * time.Minute},
		{"/posts/", 30 * time.Minute},
	}
	// The LRU keeps entries for the longest TTL; the per-entry expiry decides.
	longest := ttl
	for _, p := range perPath {
		longest = max(longest, p.ttl)
	}
	return &Cache{
		store:   expirable.NewLRU[string, *cachedResponse](size, nil, longest),
		size:    size,
		ttl:     ttl,
		log:     log.Named("cache"),
		now:     time.Now,
		bypass:  []string{"/auth/", "/admin/", "private"},
		perPath: perPath,
	}
}

// WithClock replaces the time source, for tests.
func (m *Cache) WithClock(now func() time.Time) *Cache {
	m.now = now
	return m
}

func (m *Cache) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		if m.skip(r) {
			w.Header().Set("X-Cache", "BYPASS")
			next.ServeHTTP(w, r)
			return
		}

		key := m.key(r)
		now := m.now()
		if hit, ok := m.store.Get(key); ok {
			if now.Before(hit.expiresAt) {
				m.serve(w, hit, now)
				return
			}
			m.store.Remove(key)
		}

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("X-Cache", "MISS")
		before := rec.Header().Clone()
		next.ServeHTTP(rec, r)

		if rec.status == http.StatusOK || rec.status == http.StatusCreated {
			m.store.Add(key, &cachedResponse{
				status:    rec.status,
				header:    storable(rec.Header(), before),
				body:      rec.body.Bytes(),
				storedAt:  now,
				expiresAt: now.Add(m.ttlFor(r.URL.Path)),
			})
		}
	})
}

func (m *Cache) serve(w http.ResponseWriter, c *cachedResponse, now time.Time) {
	h := w.Header()
	// Headers set by outer middlewares for this request win over stored ones.
	for k, v := range c.header {
		if _, set := h[k]; !set {
			h[k] = append([]string(nil), v...)
		}
	}
	h.Set("X-Cache", "HIT")
	h.Set("Age", strconv.Itoa(int(now.Sub(c.storedAt).Seconds())))
	w.WriteHeader(c.status)
	_, _ = w.Write(c.body)
}

// perRequest headers describe one exchange and are never replayed.
var perRequest = []string{"X-Ratelimit-", "Retry-After", "Access-Control-", "X-Request-Id", "X-Cache", "Age"}

// storable keeps the headers the inner chain added or changed, minus the
// per-request ones.
func storable(after, before http.Header) http.Header {
	out := make(http.Header)
	for k, v := range after {
		if prev, ok := before[k]; ok && slices.Equal(prev, v) {
			continue
		}
		if slices.ContainsFunc(perRequest, func(p string) bool { return strings.HasPrefix(k, p) }) {
			continue
		}
		out[k] = slices.Clone(v)
	}
	return out
}

func (m *Cache) skip(r *http.Request) bool {
	if strings.Contains(strings.ToLower(r.Header.Get("Cache-Control")), "no-cache") {
		return true
	}
	path := strings.ToLower(r.URL.Path)
	for _, p := range m.bypass {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// key hashes the request identity; the user id keeps per-user payloads apart.
func (m *Cache) key(r *http.Request) string {
	user := ""
	if claims, ok := ClaimsFrom(r.Context()); ok {
		user = strconv.FormatInt(claims.UserID, 10)
	}
	sum := sha256.Sum256([]byte(r.Method + "|" + r.URL.Path + "|" + r.URL.RawQuery + "|" + user))
	return hex.EncodeToString(sum[:])
}

func (m *Cache) ttlFor(path string) time.Duration {
	for _, p := range m.perPath {
		if strings.Contains(path, p.segment) {
			return p.ttl
		}
	}
	return m.ttl
}

// Stats reports the current fill level.
func (m *Cache) Stats() CacheStats {
	n := m.store.Len()
	return CacheStats{
		Total:        n,
		MaxSize:      m.size,
		UsagePercent: float64(n) / float64(m.size) * 100,
	}
}

// Purge drops every entry.
func (m *Cache) Purge() {
	m.store.Purge()
	m.log.Debug("Cache purged")
}

// recorder tees the response body so it can be stored after the handler
// returns.
type recorder struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
