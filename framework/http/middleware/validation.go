package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/config"
	gohttp "github.com/km-arc/fastie/framework/http"
)

// Validation rejects requests that are too large, have an unexpected content
// type, lack required headers, carry malformed JSON or look like injection
// attempts.
type Validation struct {
	maxSize      int64
	contentTypes []string
	required     []string
	suspicious   []string
	log          *zap.Logger
}

// NewValidation reads the size limit from config.
func NewValidation(cfg *config.Config, log *zap.Logger) *Validation {
	return newValidation(cfg.HTTP.MaxRequestSize, log)
}

// DefaultValidation allows bodies up to 10MB.
func DefaultValidation() *Validation { return newValidation(10<<20, zap.NewNop()) }

func newValidation(maxSize int64, log *zap.Logger) *Validation {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &Validation{
		maxSize: maxSize,
		contentTypes: []string{
			"application/json",
			"application/x-www-form-urlencoded",
			"multipart/form-data",
			"text/plain",
		},
		required:   []string{"User-Agent"},
		suspicious: []string{"<script", "javascript:", "eval(", "document.cookie"},
		log:        log.Named("validation"),
	}
}

func (m *Validation) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > m.maxSize {
			w.Header().Set("X-Max-Size", strconv.FormatInt(m.maxSize, 10))
			gohttp.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}

		hasBody := r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch
		ct := mediaType(r.Header.Get("Content-Type"))
		if hasBody && !slices.Contains(m.contentTypes, ct) {
			w.Header().Set("X-Allowed-Content-Types", strings.Join(m.contentTypes, ", "))
			gohttp.WriteError(w, http.StatusUnsupportedMediaType, "Unsupported content type")
			return
		}

		for _, name := range m.required {
			if r.Header.Get(name) == "" {
				w.Header().Set("X-Required-Headers", strings.Join(m.required, ", "))
				gohttp.WriteError(w, http.StatusBadRequest, "Missing required header: "+name)
				return
			}
		}

		if hasBody && ct == "application/json" {
			body, err := io.ReadAll(io.LimitReader(r.Body, m.maxSize+1))
			if err != nil {
				gohttp.WriteError(w, http.StatusBadRequest, "Unable to read request body")
				return
			}
			if int64(len(body)) > m.maxSize {
				w.Header().Set("X-Max-Size", strconv.FormatInt(m.maxSize, 10))
				gohttp.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			if len(body) > 0 && !json.Valid(body) {
				gohttp.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
		} else if hasBody {
			// Chunked and form bodies have no trustworthy Content-Length.
			r.Body = http.MaxBytesReader(w, r.Body, m.maxSize)
		}

		if pattern, where := m.scan(r); pattern != "" {
			m.log.Warn("Suspicious request",
				zap.String("pattern", pattern),
				zap.String("location", where),
				zap.String("ip", gohttp.ClientIP(r)),
			)
			w.Header().Set("X-Security-Check", "failed")
			gohttp.WriteError(w, http.StatusBadRequest, "Request rejected by security check")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// scan returns the first suspicious pattern found in the URL or a header
// value, and where it was found.
func (m *Validation) scan(r *http.Request) (string, string) {
	target := strings.ToLower(r.URL.String())
	if u, err := url.QueryUnescape(target); err == nil {
		target = u
	}
	for _, p := range m.suspicious {
		if strings.Contains(target, p) {
			return p, "url"
		}
	}
	for name, values := range r.Header {
		for _, v := range values {
			v = strings.ToLower(v)
			for _, p := range m.suspicious {
				if strings.Contains(v, p) {
					return p, "header:" + name
				}
			}
		}
	}
	return "", ""
}

func mediaType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
