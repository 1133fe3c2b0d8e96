package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/km-arc/fastie/framework/config"
)

// CORS answers preflight requests and decorates every response with the
// Access-Control-* headers.
type CORS struct {
	origins  []string
	methods  string
	headers  string
	allowAll bool
}

// NewCORS reads the allowed origins from config.
func NewCORS(cfg *config.Config) *CORS {
	return newCORS(cfg.HTTP.CORSOrigins)
}

// DefaultCORS allows every origin.
func DefaultCORS() *CORS { return newCORS([]string{"*"}) }

func newCORS(origins []string) *CORS {
	return &CORS{
		origins:  origins,
		methods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		headers:  "Content-Type, Authorization, Accept-Version, X-Request-ID",
		allowAll: len(origins) == 0 || slices.Contains(origins, "*"),
	}
}

func (m *CORS) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := m.allowOrigin(r.Header.Get("Origin")); origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", m.methods)
			h.Set("Access-Control-Allow-Headers", m.headers)
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-API-Version, X-RateLimit-Remaining")
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowOrigin returns the value for Access-Control-Allow-Origin, or "" when
// the origin is not allowed.
func (m *CORS) allowOrigin(origin string) string {
	if m.allowAll {
		return "*"
	}
	for _, allowed := range m.origins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}
