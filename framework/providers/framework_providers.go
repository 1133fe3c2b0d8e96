// Package providers holds the framework's own service providers. The kernel
// registers them before any application provider.
package providers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/config"
	"github.com/km-arc/fastie/framework/container"
	"github.com/km-arc/fastie/framework/database"
	"github.com/km-arc/fastie/framework/http/middleware"
	"github.com/km-arc/fastie/framework/routing"
	"github.com/km-arc/fastie/framework/security"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded *config.Config.
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(c *container.Container) error {
	if p.Config == nil {
		return errors.New("providers: nil config")
	}
	return c.Instance(p.Config)
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider reports the boot. The logger itself is bound by
// container.New.
type LoggingServiceProvider struct{}

func (LoggingServiceProvider) Register(c *container.Container) error {
	if !c.Bound(container.TypeOf[*zap.Logger]()) {
		return errors.New("providers: no logger bound")
	}
	return nil
}

func (LoggingServiceProvider) Boot(c *container.Container) error {
	log, err := container.Resolve[*zap.Logger](c)
	if err != nil {
		return err
	}
	cfg, err := container.Resolve[*config.Config](c)
	if err != nil {
		return err
	}
	log.Info("Application booting",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Bool("debug", cfg.App.Debug),
	)
	return nil
}

// ── SecurityServiceProvider ───────────────────────────────────────────────────

// SecurityServiceProvider binds the JWT signer and the password hasher.
type SecurityServiceProvider struct {
	container.BaseProvider
}

func (SecurityServiceProvider) Register(c *container.Container) error {
	return errors.Join(
		container.Component(c, security.NewJWT),
		container.Component(c, security.NewHasher),
	)
}

// ── DatabaseServiceProvider ───────────────────────────────────────────────────

// DatabaseServiceProvider binds the pool, the transaction Context and the
// Migrator. Boot pings the pool and only logs a failure.
type DatabaseServiceProvider struct {
	PingTimeout time.Duration
}

func (DatabaseServiceProvider) Register(c *container.Container) error {
	return database.Register(c)
}

func (p DatabaseServiceProvider) Boot(c *container.Container) error {
	infra, err := container.Resolve[*database.Infrastructure](c)
	if err != nil {
		return err
	}
	log := container.Make[*zap.Logger](c)

	timeout := p.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := infra.Ping(ctx); err != nil {
		log.Warn("Database unreachable", zap.Error(err))
	}
	return nil
}

// ── MiddlewareServiceProvider ─────────────────────────────────────────────────

// MiddlewareServiceProvider binds every middleware and the Catalog.
type MiddlewareServiceProvider struct {
	container.BaseProvider
}

func (MiddlewareServiceProvider) Register(c *container.Container) error {
	return middleware.Register(c)
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider binds the root Router and the Composer. Both are
// eager so they exist before Boot.
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (RoutingServiceProvider) Register(c *container.Container) error {
	return errors.Join(
		container.EagerComponent(c, routing.New),
		container.EagerComponent(c, routing.NewComposer),
	)
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider instruments every request and serves the
// Prometheus registry on Path. It must boot before routes are applied.
type MetricsServiceProvider struct {
	Path string
}

func (MetricsServiceProvider) Register(c *container.Container) error {
	if c.Bound(container.TypeOf[*middleware.Metrics]()) {
		return nil
	}
	return container.Component(c, middleware.NewMetrics)
}

func (p MetricsServiceProvider) Boot(c *container.Container) error {
	r, err := container.Resolve[*routing.Router](c)
	if err != nil {
		return err
	}
	m, err := container.Resolve[*middleware.Metrics](c)
	if err != nil {
		return err
	}
	path := p.Path
	if path == "" {
		path = "/metrics"
	}
	r.Middleware(m.Handle)
	r.Handle(path, m.Handler())
	return nil
}

// Defaults returns the framework providers in registration order.
func Defaults(cfg *config.Config) []container.ServiceProvider {
	return []container.ServiceProvider{
		&ConfigServiceProvider{Config: cfg},
		LoggingServiceProvider{},
		SecurityServiceProvider{},
		DatabaseServiceProvider{},
		MiddlewareServiceProvider{},
		RoutingServiceProvider{},
		MetricsServiceProvider{},
	}
}
