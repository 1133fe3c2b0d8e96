// Package app is the kernel: it loads configuration, registers the
// framework providers, builds the component graph and serves HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/config"
	"github.com/km-arc/fastie/framework/container"
	"github.com/km-arc/fastie/framework/database"
	"github.com/km-arc/fastie/framework/logging"
	"github.com/km-arc/fastie/framework/providers"
	"github.com/km-arc/fastie/framework/routing"
)

// Version is reported by the CLI.
const Version = "0.1.0"

// RouteFunc mounts controllers on the Composer during Boot.
type RouteFunc func(cp *routing.Composer) error

// Application is the top-level application container.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	cfg    *config.Config
	log    *zap.Logger
	routes []RouteFunc
	booted bool
}

// New loads config from env files, builds the logger and registers the
// framework providers.
//
//	a, err := app.New()
//	a.Register(container.ProviderFunc(userapp.Register))
//	a.Routes(userapp.Routes)
//	err = a.Run(ctx)
func New(envFiles ...string) (*Application, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logging.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewWith(cfg, log)
}

// NewWith builds an Application from an existing config and logger.
func NewWith(cfg *config.Config, log *zap.Logger) (*Application, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := container.New(log)
	a := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		cfg:       cfg,
		log:       log,
	}
	for _, p := range providers.Defaults(cfg) {
		if err := a.Providers.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds an application provider.
func (a *Application) Register(p container.ServiceProvider) error {
	return a.Providers.Register(p)
}

// Routes queues fn to run on the Composer during Boot.
func (a *Application) Routes(fn RouteFunc) {
	a.routes = append(a.routes, fn)
}

// Boot builds the component graph, boots the providers and applies the
// composed routes. It runs once.
func (a *Application) Boot() error {
	if a.booted {
		return nil
	}
	if err := a.LoadAll(); err != nil {
		return err
	}
	if err := a.Providers.Boot(); err != nil {
		return err
	}

	cp, err := container.Resolve[*routing.Composer](a.Container)
	if err != nil {
		return err
	}
	for _, fn := range a.routes {
		if err := fn(cp); err != nil {
			return fmt.Errorf("compose routes: %w", err)
		}
	}
	cp.Apply(a.Router())

	a.booted = true
	return nil
}

// Handler boots the application and returns the root handler.
func (a *Application) Handler() (http.Handler, error) {
	if err := a.Boot(); err != nil {
		return nil, err
	}
	return a.Router(), nil
}

// Run boots the application and serves on APP_PORT until ctx is cancelled
// or SIGINT/SIGTERM arrives, then drains within HTTP.ShutdownTimeout.
func (a *Application) Run(ctx context.Context) error {
	h, err := a.Handler()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + a.cfg.App.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server started",
			zap.String("app", a.cfg.App.Name),
			zap.String("addr", srv.Addr),
			zap.String("env", a.cfg.App.Env),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		a.log.Info("Shutting down")
		timeout := a.cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return a.Close()
}

// Close releases the database pool and flushes the logger.
func (a *Application) Close() error {
	var errs []error
	if infra, err := container.Resolve[*database.Infrastructure](a.Container); err == nil {
		errs = append(errs, infra.Close())
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}

// ── Accessors ────────────────────────────────────────────────────────────────

func (a *Application) Config() *config.Config { return a.cfg }
func (a *Application) Logger() *zap.Logger    { return a.log }

// Router resolves the root router.
func (a *Application) Router() *routing.Router {
	return container.Make[*routing.Router](a.Container)
}

// Composer resolves the route composer.
func (a *Application) Composer() *routing.Composer {
	return container.Make[*routing.Composer](a.Container)
}

func (a *Application) Environment() string { return a.cfg.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.cfg.App.Debug }
