package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/config"
	gohttp "github.com/km-arc/fastie/framework/http"
	"github.com/km-arc/fastie/framework/security"
)

// Auth requires a valid bearer token and stores its claims on the request
// context.
type Auth struct {
	jwt *security.JWT
	log *zap.Logger
}

// NewAuth verifies tokens with the shared token service.
func NewAuth(jwt *security.JWT, log *zap.Logger) *Auth {
	return &Auth{jwt: jwt, log: log.Named("auth")}
}

// DefaultAuth signs with a random secret, so it rejects every token not
// issued by itself. It only exists as a fail-closed fallback.
func DefaultAuth() (*Auth, error) {
	jwt, err := security.NewJWT(&config.Config{})
	if err != nil {
		return nil, err
	}
	return NewAuth(jwt, zap.NewNop()), nil
}

func (m *Auth) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := gohttp.BearerToken(r)
		if token == "" {
			gohttp.WriteError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		claims, err := m.jwt.Parse(token)
		if err != nil {
			m.log.Debug("Token rejected", zap.Error(err), zap.String("path", r.URL.Path))
			gohttp.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *security.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFrom returns the claims stored by Auth, if any.
func ClaimsFrom(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*security.Claims)
	return c, ok && c != nil
}
