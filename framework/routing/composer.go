package routing

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/config"
	"github.com/km-arc/fastie/framework/container"
	"github.com/km-arc/fastie/framework/http/middleware"
)

// Controller declares its routes relative to the prefix it is mounted at.
type Controller interface {
	Routes(r *Router)
}

var (
	// ErrNotController is returned when the resolved value does not
	// implement Controller.
	ErrNotController = errors.New("routing: not a controller")
	// ErrDuplicateMount is returned when two controllers share a prefix.
	ErrDuplicateMount = errors.New("routing: prefix already mounted")
)

// Mount describes where and behind which middlewares a controller is served.
// Group, when set, takes precedence over RouteType.
type Mount struct {
	Prefix    string
	Tags      []string
	RouteType middleware.RouteType
	Group     middleware.Group
	Extra     []reflect.Type
}

// MountInfo is the read-only view returned by Composer.Mounts.
type MountInfo struct {
	Prefix      string
	Controller  string
	Tags        []string
	Group       middleware.Group
	Middlewares []string
}

type mounted struct {
	Mount
	controller Controller
	typ        reflect.Type
	group      middleware.Group
	chain      []middleware.Middleware
}

// Composer collects controllers and mounts them under the API prefix.
type Composer struct {
	c       *container.Container
	catalog *middleware.Catalog
	prefix  string
	log     *zap.Logger
	mounts  []mounted
}

// NewComposer mounts under cfg.HTTP.APIPrefix, "/api/v1" when unset.
func NewComposer(c *container.Container, catalog *middleware.Catalog, cfg *config.Config, log *zap.Logger) *Composer {
	prefix := cfg.HTTP.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &Composer{c: c, catalog: catalog, prefix: cleanPrefix(prefix), log: log.Named("routing")}
}

// Compose resolves the controller of type t and its middleware chain and
// records the mount. Nothing is served until Apply.
func (cp *Composer) Compose(t reflect.Type, m Mount) error {
	m.Prefix = cleanPrefix(m.Prefix)
	for _, existing := range cp.mounts {
		if existing.Prefix == m.Prefix {
			return fmt.Errorf("%w: %q (%s, %s)", ErrDuplicateMount, m.Prefix, existing.typ, t)
		}
	}

	v, err := cp.c.Resolve(t)
	if err != nil {
		return fmt.Errorf("routing: resolve controller %s: %w", t, err)
	}
	ctrl, ok := v.(Controller)
	if !ok {
		return fmt.Errorf("%w: %s has no Routes(*routing.Router) method", ErrNotController, t)
	}

	group := m.Group
	if group == "" {
		group = middleware.GroupFor(m.RouteType)
	}
	chain, err := cp.catalog.Group(group)
	if err != nil {
		return fmt.Errorf("routing: middleware for %s: %w", t, err)
	}
	for _, et := range m.Extra {
		mw, err := cp.catalog.Resolve(et)
		if err != nil {
			return fmt.Errorf("routing: extra middleware for %s: %w", t, err)
		}
		if !containsType(chain, mw) {
			chain = append(chain, mw)
		}
	}

	cp.mounts = append(cp.mounts, mounted{Mount: m, controller: ctrl, typ: t, group: group, chain: chain})
	cp.log.Debug("Controller composed",
		zap.String("controller", t.String()),
		zap.String("prefix", cp.prefix+m.Prefix),
		zap.String("group", string(group)),
		zap.Int("middlewares", len(chain)),
	)
	return nil
}

// Compose is the generic form of Composer.Compose.
//
//	routing.Compose[*controllers.AuthController](cp, routing.Mount{Prefix: "/auth", RouteType: middleware.RoutePublic})
func Compose[T Controller](cp *Composer, m Mount) error {
	return cp.Compose(container.TypeOf[T](), m)
}

// Apply mounts every composed controller on r under the API prefix, in the
// order they were composed.
func (cp *Composer) Apply(r *Router) {
	within(r, cp.prefix, func(api *Router) {
		for _, m := range cp.mounts {
			within(api, m.Prefix, func(sub *Router) {
				sub.Middleware(middleware.Handlers(m.chain)...)
				m.controller.Routes(sub)
			})
		}
	})
	cp.log.Info("Routes applied", zap.String("prefix", cp.prefix), zap.Int("controllers", len(cp.mounts)))
}

// Prefix returns the API prefix every mount lives under.
func (cp *Composer) Prefix() string { return cp.prefix }

// Mounts lists the composed controllers in order.
func (cp *Composer) Mounts() []MountInfo {
	out := make([]MountInfo, len(cp.mounts))
	for i, m := range cp.mounts {
		names := make([]string, len(m.chain))
		for j, mw := range m.chain {
			names[j] = strings.TrimPrefix(reflect.TypeOf(mw).String(), "*")
		}
		out[i] = MountInfo{
			Prefix:      cp.prefix + m.Prefix,
			Controller:  m.typ.String(),
			Tags:        m.Tags,
			Group:       m.group,
			Middlewares: names,
		}
	}
	return out
}

func containsType(chain []middleware.Middleware, mw middleware.Middleware) bool {
	t := reflect.TypeOf(mw)
	for _, c := range chain {
		if reflect.TypeOf(c) == t {
			return true
		}
	}
	return false
}

// within runs fn on a sub-router at prefix, or on an inline group when the
// prefix is empty (chi rejects empty mount patterns).
func within(r *Router, prefix string, fn func(*Router)) {
	if prefix == "" {
		r.Group(fn)
		return
	}
	r.Prefix(prefix, fn)
}

// cleanPrefix returns "/a/b" for "a/b/", and "" for "/" or "".
func cleanPrefix(p string) string {
	p = path.Clean("/" + p)
	if p == "/" {
		return ""
	}
	return p
}
