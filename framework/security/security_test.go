package security_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/km-arc/fastie/framework/config"
	"github.com/km-arc/fastie/framework/security"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "fastie-test"},
		Security: config.SecurityConfig{JWTSecret: "test-secret", JWTAlgorithm: "HS256", JWTTTL: time.Minute, BcryptCost: bcrypt.MinCost},
	}
}

// ── JWT ──────────────────────────────────────────────────────────────────────

func TestJWT_IssueAndParse(t *testing.T) {
	j, err := security.NewJWT(testConfig())
	require.NoError(t, err)

	token, exp, err := j.Issue(7, "ada@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, err := j.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "fastie-test", claims.Issuer)
}

func TestJWT_RejectsExpiredToken(t *testing.T) {
	j, err := security.NewJWT(testConfig())
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	token, _, err := j.WithClock(func() time.Time { return past }).Issue(1, "")
	require.NoError(t, err)

	_, err = j.WithClock(time.Now).Parse(token)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestJWT_RejectsWrongSecretAndAlgorithm(t *testing.T) {
	j, err := security.NewJWT(testConfig())
	require.NoError(t, err)

	other := testConfig()
	other.Security.JWTSecret = "another-secret"
	o, err := security.NewJWT(other)
	require.NoError(t, err)

	token, _, err := o.Issue(1, "")
	require.NoError(t, err)
	_, err = j.Parse(token)
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	// Same secret, different HMAC size.
	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	signed, err := hs512.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = j.Parse(signed)
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	_, err = j.Parse("not-a-token")
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestNewJWT_Algorithms(t *testing.T) {
	cfg := testConfig()
	cfg.Security.JWTAlgorithm = "RS256"
	_, err := security.NewJWT(cfg)
	assert.ErrorIs(t, err, security.ErrUnsupportedAlgorithm)

	cfg.Security.JWTAlgorithm = "HS384"
	_, err = security.NewJWT(cfg)
	assert.NoError(t, err)
}

func TestNewJWT_EmptySecretStillSigns(t *testing.T) {
	cfg := testConfig()
	cfg.Security.JWTSecret = ""
	j, err := security.NewJWT(cfg)
	require.NoError(t, err)

	token, _, err := j.Issue(3, "")
	require.NoError(t, err)
	_, err = j.Parse(token)
	assert.NoError(t, err)
}

// ── Hasher ───────────────────────────────────────────────────────────────────

func TestHasher_HashAndVerify(t *testing.T) {
	h := security.NewHasher(testConfig())

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, h.Verify(hash, "correct horse"))
	assert.False(t, h.Verify(hash, "wrong horse"))
	assert.False(t, h.Verify("garbage", "correct horse"))
}

func TestHasher_NeedsRehash(t *testing.T) {
	h := security.NewHasher(testConfig())
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	assert.False(t, h.NeedsRehash(hash))

	cfg := testConfig()
	cfg.Security.BcryptCost = bcrypt.MinCost + 1
	assert.True(t, security.NewHasher(cfg).NeedsRehash(hash))
	assert.True(t, h.NeedsRehash("short"))
}
