package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/fastie/framework/config"
	"github.com/km-arc/fastie/framework/container"
	"github.com/km-arc/fastie/framework/http/middleware"
	"github.com/km-arc/fastie/framework/security"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "fastie-test", Env: "testing"},
		Security: config.SecurityConfig{JWTSecret: "secret", JWTTTL: time.Minute},
		HTTP: config.HTTPConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Hour,
			CacheTTL:          5 * time.Minute,
			CacheSize:         100,
			APIVersions:       []string{"v1", "v2"},
			DefaultAPIVersion: "v1",
			MaxRequestSize:    1 << 20,
		},
	}
}

// wired returns a container with everything the middlewares depend on.
func wired(t *testing.T, log *zap.Logger) *container.Container {
	t.Helper()
	c := container.New(log)
	require.NoError(t, c.Instance(testConfig()))
	require.NoError(t, container.Component(c, security.NewJWT))
	require.NoError(t, middleware.Register(c))
	return c
}

func typesOf(mws []middleware.Middleware) []reflect.Type {
	out := make([]reflect.Type, len(mws))
	for i, m := range mws {
		out[i] = reflect.TypeOf(m)
	}
	return out
}

var (
	tCORS       = container.TypeOf[*middleware.CORS]()
	tLogging    = container.TypeOf[*middleware.Logging]()
	tRateLimit  = container.TypeOf[*middleware.RateLimit]()
	tAuth       = container.TypeOf[*middleware.Auth]()
	tCache      = container.TypeOf[*middleware.Cache]()
	tValidation = container.TypeOf[*middleware.Validation]()
	tVersioning = container.TypeOf[*middleware.Versioning]()
	tMetrics    = container.TypeOf[*middleware.Metrics]()
)

func TestCatalog_GroupTable(t *testing.T) {
	want := map[middleware.Group][]reflect.Type{
		middleware.GroupBasic:            {tCORS, tLogging},
		middleware.GroupSecurity:         {tAuth, tRateLimit},
		middleware.GroupPublic:           {tCORS, tLogging, tRateLimit},
		middleware.GroupProtected:        {tCORS, tLogging, tRateLimit, tAuth},
		middleware.GroupFull:             {tCORS, tLogging, tRateLimit, tAuth},
		middleware.GroupHighPerformance:  {tCORS, tLogging, tCache, tRateLimit},
		middleware.GroupStrictValidation: {tCORS, tValidation, tLogging, tRateLimit, tAuth},
		middleware.GroupAPIVersioned:     {tVersioning, tCORS, tLogging, tRateLimit},
	}
	require.Len(t, middleware.Groups(), len(want))

	cat := middleware.NewCatalog(wired(t, zap.NewNop()), zap.NewNop())
	for group, types := range want {
		mws, err := cat.Group(group)
		require.NoError(t, err, group)
		assert.Equal(t, types, typesOf(mws), group)
	}
}

func TestCatalog_UnknownGroup(t *testing.T) {
	cat := middleware.NewCatalog(wired(t, zap.NewNop()), zap.NewNop())
	_, err := cat.Group("turbo")
	assert.ErrorIs(t, err, middleware.ErrUnknownGroup)
}

func TestCatalog_ForRoute(t *testing.T) {
	cat := middleware.NewCatalog(wired(t, zap.NewNop()), zap.NewNop())

	cases := map[middleware.RouteType][]reflect.Type{
		middleware.RoutePublic:    {tCORS, tLogging, tRateLimit},
		middleware.RouteProtected: {tCORS, tLogging, tRateLimit, tAuth},
		middleware.RouteAdmin:     {tCORS, tLogging, tRateLimit, tAuth},
		"internal":                {tCORS, tLogging},
	}
	for rt, types := range cases {
		mws, err := cat.ForRoute(rt)
		require.NoError(t, err)
		assert.Equal(t, types, typesOf(mws), rt)
	}

	mws, err := cat.ForRoute(middleware.RoutePublic, tMetrics, tCORS)
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{tCORS, tLogging, tRateLimit, tMetrics}, typesOf(mws))
}

func TestCatalog_SharesContainerSingletons(t *testing.T) {
	c := wired(t, zap.NewNop())
	cat := middleware.NewCatalog(c, zap.NewNop())

	public, err := cat.Group(middleware.GroupPublic)
	require.NoError(t, err)
	protected, err := cat.Group(middleware.GroupProtected)
	require.NoError(t, err)

	// The rate limit budget is shared between groups.
	assert.Same(t, public[2], protected[2])

	fromContainer, err := container.Resolve[*middleware.RateLimit](c)
	require.NoError(t, err)
	assert.Same(t, fromContainer, public[2])
}

func TestCatalog_FallsBackToDefault(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	// No config and no JWT: every constructor that needs them fails.
	c := container.New(log)
	require.NoError(t, middleware.Register(c))
	cat := middleware.NewCatalog(c, log)

	mws, err := cat.Group(middleware.GroupProtected)
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{tCORS, tLogging, tRateLimit, tAuth}, typesOf(mws))

	warnings := logs.FilterMessage("Middleware construction failed, using default").All()
	require.NotEmpty(t, warnings)
	for _, w := range warnings {
		err, ok := w.ContextMap()["error"].(string)
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(err, middleware.ErrMiddlewareConstruction.Error()))
	}

	// The fallback is reused, not rebuilt.
	before := logs.Len()
	again, err := cat.Group(middleware.GroupProtected)
	require.NoError(t, err)
	assert.Same(t, mws[0], again[0])
	assert.Equal(t, before, logs.Len())

	// The fallback Auth fails closed.
	h := middleware.Chain(http.HandlerFunc(okHandler), mws...)
	assert.Equal(t, http.StatusUnauthorized, serve(h, get("/")).Code)
}

func TestCatalog_FallbackWithoutDefault(t *testing.T) {
	type custom struct{ middleware.Func }
	cat := middleware.NewCatalog(container.New(nil), zap.NewNop())

	_, err := cat.Resolve(container.TypeOf[*custom]())
	assert.ErrorIs(t, err, middleware.ErrMiddlewareConstruction)
	assert.ErrorIs(t, err, container.ErrServiceNotRegistered)
}

func TestCatalog_DefaultConstructorError(t *testing.T) {
	cat := middleware.NewCatalog(container.New(nil), zap.NewNop())
	boom := errors.New("boom")
	cat.SetDefault(tCORS, func() (*middleware.CORS, error) { return nil, boom })

	_, err := cat.Resolve(tCORS)
	assert.ErrorIs(t, err, boom)
}

func TestCatalog_EnsureRegistered(t *testing.T) {
	c := container.New(nil)
	cat := middleware.NewCatalog(c, zap.NewNop())

	require.NoError(t, cat.EnsureRegistered(tVersioning))
	assert.True(t, c.Bound(tVersioning))

	v, err := container.Resolve[*middleware.Versioning](c)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	v.Handle(http.HandlerFunc(okHandler)).ServeHTTP(rr, get("/api/v2/x"))
	assert.Equal(t, "v2", rr.Header().Get("X-API-Version"))

	// Already bound: left alone.
	require.NoError(t, cat.EnsureRegistered(tVersioning))
}

func TestMetrics_CountsRequests(t *testing.T) {
	m := middleware.NewMetrics()
	h := m.Handle(http.HandlerFunc(okHandler))
	serve(h, get("/a"))
	serve(h, get("/b"))

	rr := serve(m.Handler(), get("/metrics"))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `fastie_http_requests_total{method="GET",route="unmatched",status="200"} 2`)
	assert.Contains(t, body, "fastie_http_request_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}
