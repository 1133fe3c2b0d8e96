package middleware

import (
	"context"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/km-arc/fastie/framework/config"
	gohttp "github.com/km-arc/fastie/framework/http"
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

// Versioning resolves the API version of a request. The Accept-Version
// header wins; otherwise a /api/ path is searched for a vN segment, and any
// other path may use ?version=.
type Versioning struct {
	supported []string
	fallback  string
}

// NewVersioning reads the supported and default versions from config.
func NewVersioning(cfg *config.Config) *Versioning {
	return newVersioning(cfg.HTTP.APIVersions, cfg.HTTP.DefaultAPIVersion)
}

// DefaultVersioning supports v1 and v2, defaulting to v1.
func DefaultVersioning() *Versioning { return newVersioning(nil, "") }

func newVersioning(supported []string, fallback string) *Versioning {
	if len(supported) == 0 {
		supported = []string{"v1", "v2"}
	}
	if fallback == "" {
		fallback = "v1"
	}
	return &Versioning{supported: supported, fallback: fallback}
}

func (m *Versioning) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version := m.detect(r)
		if !slices.Contains(m.supported, version) {
			w.Header().Set("X-Supported-Versions", strings.Join(m.supported, ", "))
			gohttp.WriteError(w, http.StatusBadRequest, "Unsupported API version: "+version)
			return
		}
		w.Header().Set("X-API-Version", version)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), versionKey, version)))
	})
}

func (m *Versioning) detect(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("Accept-Version")); v != "" {
		return v
	}
	if strings.Contains(r.URL.Path, "/api/") {
		for _, seg := range strings.Split(r.URL.Path, "/") {
			if versionSegment.MatchString(seg) {
				return seg
			}
		}
		return m.fallback
	}
	if v := r.URL.Query().Get("version"); v != "" {
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		return v
	}
	return m.fallback
}

// VersionFrom returns the version resolved by Versioning, or "" when the
// middleware did not run.
func VersionFrom(ctx context.Context) string {
	v, _ := ctx.Value(versionKey).(string)
	return v
}
