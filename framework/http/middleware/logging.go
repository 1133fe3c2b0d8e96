package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	gohttp "github.com/km-arc/fastie/framework/http"
)

// RequestIDHeader is read from the request and echoed on the response.
const RequestIDHeader = "X-Request-ID"

// Logging writes one structured line per request and makes sure every
// request carries an X-Request-ID.
type Logging struct {
	log *zap.Logger
}

// NewLogging logs through the application logger.
func NewLogging(log *zap.Logger) *Logging {
	return &Logging{log: log.Named("http")}
}

// DefaultLogging uses zap's production logger, or a no-op one if it cannot
// be built.
func DefaultLogging() *Logging {
	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}
	return NewLogging(log)
}

func (m *Logging) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("ip", gohttp.ClientIP(r)),
			zap.String("user_agent", r.UserAgent()),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		}
		switch {
		case status >= 500:
			m.log.Error("Request", fields...)
		case status >= 400:
			m.log.Warn("Request", fields...)
		default:
			m.log.Info("Request", fields...)
		}
	})
}

// RequestIDFrom returns the id assigned by Logging.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
