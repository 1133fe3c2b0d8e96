// Package security issues and verifies access tokens and hashes passwords.
package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/km-arc/fastie/framework/config"
)

var (
	// ErrInvalidToken is returned for any token that fails to parse or verify.
	ErrInvalidToken = errors.New("security: invalid token")
	// ErrUnsupportedAlgorithm is returned by NewJWT for non-HMAC algorithms.
	ErrUnsupportedAlgorithm = errors.New("security: unsupported JWT algorithm")
)

// Claims is the payload of an access token.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWT signs and verifies HMAC access tokens.
type JWT struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWT builds the token service from the security settings. An empty
// secret is replaced by a random one, so tokens do not survive a restart;
// Config.Validate refuses that outside local and testing.
func NewJWT(cfg *config.Config) (*JWT, error) {
	var method jwt.SigningMethod
	switch cfg.Security.JWTAlgorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, cfg.Security.JWTAlgorithm)
	}

	secret := []byte(cfg.Security.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("security: generate secret: %w", err)
		}
	}

	ttl := cfg.Security.JWTTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &JWT{secret: secret, method: method, ttl: ttl, issuer: cfg.App.Name, now: time.Now}, nil
}

// Issue signs a token for the user. It returns the token and its expiry.
func (j *JWT) Issue(userID int64, email string) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.ttl)
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(j.method, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("security: sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies the signature, algorithm and expiry of token.
func (j *JWT) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TTL returns the lifetime of issued tokens.
func (j *JWT) TTL() time.Duration { return j.ttl }

// WithClock replaces the time source, for tests.
func (j *JWT) WithClock(now func() time.Time) *JWT {
	j.now = now
	return j
}
