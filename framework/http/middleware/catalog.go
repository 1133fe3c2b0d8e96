package middleware

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/container"
)

// ── Groups ────────────────────────────────────────────────────────────────────

// Group names a fixed middleware chain.
type Group string

const (
	GroupBasic            Group = "basic"
	GroupSecurity         Group = "security"
	GroupPublic           Group = "public"
	GroupProtected        Group = "protected"
	GroupFull             Group = "full"
	GroupHighPerformance  Group = "high_performance"
	GroupStrictValidation Group = "strict_validation"
	GroupAPIVersioned     Group = "api_versioned"
)

// RouteType is the coarse access class of a controller mount.
type RouteType string

const (
	RoutePublic    RouteType = "public"
	RouteProtected RouteType = "protected"
	RouteAdmin     RouteType = "admin"
)

var (
	corsType       = container.TypeOf[*CORS]()
	loggingType    = container.TypeOf[*Logging]()
	rateLimitType  = container.TypeOf[*RateLimit]()
	authType       = container.TypeOf[*Auth]()
	cacheType      = container.TypeOf[*Cache]()
	validationType = container.TypeOf[*Validation]()
	versioningType = container.TypeOf[*Versioning]()
	metricsType    = container.TypeOf[*Metrics]()
)

// groups lists each chain outermost first.
var groups = map[Group][]reflect.Type{
	GroupBasic:            {corsType, loggingType},
	GroupSecurity:         {authType, rateLimitType},
	GroupPublic:           {corsType, loggingType, rateLimitType},
	GroupProtected:        {corsType, loggingType, rateLimitType, authType},
	GroupFull:             {corsType, loggingType, rateLimitType, authType},
	GroupHighPerformance:  {corsType, loggingType, cacheType, rateLimitType},
	GroupStrictValidation: {corsType, validationType, loggingType, rateLimitType, authType},
	GroupAPIVersioned:     {versioningType, corsType, loggingType, rateLimitType},
}

// GroupFor maps a route type to its group; unknown types get basic.
func GroupFor(rt RouteType) Group {
	switch rt {
	case RoutePublic:
		return GroupPublic
	case RouteProtected:
		return GroupProtected
	case RouteAdmin:
		return GroupFull
	default:
		return GroupBasic
	}
}

// Groups returns every group name, sorted.
func Groups() []Group {
	out := make([]Group, 0, len(groups))
	for g := range groups {
		out = append(out, g)
	}
	slices.Sort(out)
	return out
}

// ── Catalog ───────────────────────────────────────────────────────────────────

// Catalog turns group names into middleware instances taken from the
// container. A middleware the container cannot build is replaced by the
// result of its default constructor, which is kept for later lookups.
type Catalog struct {
	c   *container.Container
	log *zap.Logger

	mu        sync.Mutex
	defaults  map[reflect.Type]any
	fallbacks map[reflect.Type]Middleware
}

// NewCatalog knows the default constructor of every middleware in this
// package.
func NewCatalog(c *container.Container, log *zap.Logger) *Catalog {
	return &Catalog{
		c:   c,
		log: log.Named("middleware"),
		defaults: map[reflect.Type]any{
			corsType:       DefaultCORS,
			loggingType:    DefaultLogging,
			rateLimitType:  DefaultRateLimit,
			authType:       DefaultAuth,
			cacheType:      DefaultCache,
			validationType: DefaultValidation,
			versioningType: DefaultVersioning,
			metricsType:    NewMetrics,
		},
		fallbacks: make(map[reflect.Type]Middleware),
	}
}

// SetDefault registers the fallback constructor for t. ctor takes no
// arguments and returns *T or (*T, error).
func (cat *Catalog) SetDefault(t reflect.Type, ctor any) {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	cat.defaults[t] = ctor
}

// Group returns the chain registered under name.
func (cat *Catalog) Group(name Group) ([]Middleware, error) {
	types, ok := groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return cat.resolveAll(types)
}

// ForRoute returns the chain for rt followed by extra middleware types that
// are not already part of it.
func (cat *Catalog) ForRoute(rt RouteType, extra ...reflect.Type) ([]Middleware, error) {
	types := slices.Clone(groups[GroupFor(rt)])
	for _, t := range extra {
		if !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	return cat.resolveAll(types)
}

func (cat *Catalog) resolveAll(types []reflect.Type) ([]Middleware, error) {
	out := make([]Middleware, 0, len(types))
	for _, t := range types {
		m, err := cat.Resolve(t)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Resolve returns the middleware of concrete type t.
func (cat *Catalog) Resolve(t reflect.Type) (Middleware, error) {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if m, ok := cat.fallbacks[t]; ok {
		return m, nil
	}

	v, err := cat.c.Resolve(t)
	if err == nil {
		m, ok := v.(Middleware)
		if !ok {
			return nil, fmt.Errorf("middleware: %s does not implement Middleware", t)
		}
		return m, nil
	}

	ctor, ok := cat.defaults[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w", ErrMiddlewareConstruction, t, err)
	}
	cat.log.Warn("Middleware construction failed, using default",
		zap.String("middleware", t.String()),
		zap.Error(fmt.Errorf("%w: %w", ErrMiddlewareConstruction, err)),
	)

	m, buildErr := callDefault(ctor)
	if buildErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMiddlewareConstruction, t, buildErr)
	}
	cat.fallbacks[t] = m
	if regErr := cat.c.Instance(m); regErr != nil {
		cat.log.Warn("Fallback middleware not registered", zap.String("middleware", t.String()), zap.Error(regErr))
	}
	return m, nil
}

// EnsureRegistered registers the default constructor of t as a lazy
// component unless the container can already satisfy t.
func (cat *Catalog) EnsureRegistered(t reflect.Type) error {
	if cat.c.Bound(t) {
		return nil
	}
	cat.mu.Lock()
	ctor, ok := cat.defaults[t]
	cat.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no default constructor for %s", ErrMiddlewareConstruction, t)
	}
	return container.Component(cat.c, ctor)
}

func callDefault(ctor any) (Middleware, error) {
	out := reflect.ValueOf(ctor).Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	m, ok := out[0].Interface().(Middleware)
	if !ok {
		return nil, fmt.Errorf("default constructor returned %s", out[0].Type())
	}
	return m, nil
}
