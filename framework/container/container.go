package container

import (
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container wires components together by type.
//
// It is the facade over three parts:
//   - Registrar: descriptors and (interface, qualifier) bindings
//   - resolver:  builds instances, detects cycles, caches singletons
//   - Registry:  live instances keyed by (type, qualifier)
//
// Registration is explicit. Each package exposes a Register function that
// calls the role helpers below, the application calls them all, then LoadAll
// builds the eager graph tier by tier.
type Container struct {
	registrar *Registrar
	registry  *Registry
	resolver  *resolver
	log       *zap.Logger

	// trail is the build path a constructor-held view was handed out on.
	trail []reflect.Type
}

// New creates an empty container. The container and the logger are
// registered as instances so constructors can depend on them.
func New(log *zap.Logger) *Container {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Container{
		registrar: newRegistrar(log),
		registry:  NewRegistry(),
		log:       log,
	}
	c.resolver = &resolver{root: c, registrar: c.registrar, registry: c.registry, log: log}

	c.registry.Register(containerType, c, "")
	c.registry.Register(TypeOf[*zap.Logger](), log, "")
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register records a constructor. The first result of ctor is the concrete
// type; every parameter is a dependency resolved from the container.
//
//	err := c.Register(repositories.NewUserRepository,
//	    container.WithRole(container.RoleRepository),
//	    container.As[repositories.UserRepository]())
func (c *Container) Register(ctor any, opts ...Option) error {
	d, err := describe(ctor, buildOptions(opts))
	if err != nil {
		return err
	}
	c.registrar.add(d)
	c.log.Debug("Component registered",
		zap.String("type", d.Type.String()),
		zap.Stringer("role", d.Role),
		zap.Stringer("scope", d.Scope),
		zap.String("qualifier", d.Qualifier),
		zap.Bool("lazy", d.Lazy),
	)
	return nil
}

// Instance stores a pre-built value in the registry under its own type and
// every As interface. Only WithQualifier and As are meaningful here.
//
//	c.Instance(cfg)
//	c.Instance(primaryDB, container.WithQualifier("primary"))
func (c *Container) Instance(v any, opts ...Option) error {
	if v == nil {
		return &RegistrationError{Subject: "<nil>", Reason: "instance must not be nil"}
	}
	o := buildOptions(opts)
	t := reflect.TypeOf(v)
	if err := checkInterfaces(t.String(), t, o.interfaces); err != nil {
		return err
	}
	c.registry.Register(t, v, o.qualifier)
	for _, iface := range o.interfaces {
		c.registry.Register(iface, v, o.qualifier)
	}
	return nil
}

// Component registers a lazily loaded general-purpose component.
func Component(c *Container, ctor any, opts ...Option) error {
	return c.Register(ctor, withDefaults(opts, WithRole(RoleComponent), Lazy(true))...)
}

// EagerComponent registers a component that LoadAll builds at startup.
func EagerComponent(c *Container, ctor any, opts ...Option) error {
	return c.Register(ctor, withDefaults(opts, WithRole(RoleComponent), Lazy(false))...)
}

// Infrastructure registers a resource such as a database connection. It is
// eager and lands in the first load tier.
func Infrastructure(c *Container, ctor any, opts ...Option) error {
	return c.Register(ctor, withDefaults(opts, WithRole(RoleInfrastructure), Lazy(false))...)
}

// Repository registers a data access component.
func Repository(c *Container, ctor any, opts ...Option) error {
	return c.Register(ctor, withDefaults(opts, WithRole(RoleRepository), Lazy(true))...)
}

// Service registers a business logic component.
func Service(c *Container, ctor any, opts ...Option) error {
	return c.Register(ctor, withDefaults(opts, WithRole(RoleService), Lazy(true))...)
}

// Controller registers an HTTP controller.
func Controller(c *Container, ctor any, opts ...Option) error {
	return c.Register(ctor, withDefaults(opts, WithRole(RoleController), Lazy(true))...)
}

// withDefaults puts the helper defaults first so caller options win.
func withDefaults(opts []Option, defaults ...Option) []Option {
	return append(defaults, opts...)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve returns the implementation bound to t. An optional qualifier
// selects between several implementations of one interface.
func (c *Container) Resolve(t reflect.Type, qualifier ...string) (any, error) {
	var q string
	if len(qualifier) > 0 {
		q = qualifier[0]
	}
	return c.resolver.resolve(t, q, &resolution{path: slices.Clone(c.trail)})
}

// Bound reports whether anything can satisfy t, either a binding or a live
// instance.
func (c *Container) Bound(t reflect.Type, qualifier ...string) bool {
	var q string
	if len(qualifier) > 0 {
		q = qualifier[0]
	}
	if _, ok := c.registrar.lookup(t, q); ok {
		return true
	}
	return c.registry.Has(t, q) || c.registry.Has(t, "")
}

// Resolved reports whether the singleton of concrete type t has been built.
func (c *Container) Resolved(t reflect.Type) bool {
	_, ok := c.resolver.singletons.Load(t)
	return ok
}

// OnResolved registers a callback fired after every construction.
func (c *Container) OnResolved(fn func(d *Descriptor, instance any)) {
	c.resolver.onResolved(fn)
}

// Descriptors returns every registered descriptor in registration order.
func (c *Container) Descriptors() []*Descriptor { return c.registrar.Descriptors() }

// Registrar exposes the descriptor table.
func (c *Container) Registrar() *Registrar { return c.registrar }

// Registry exposes the live instances.
func (c *Container) Registry() *Registry { return c.registry }

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger { return c.log }

// ── Generics helpers ──────────────────────────────────────────────────────────

// TypeOf returns the reflect.Type of T, interfaces included.
//
//	container.TypeOf[services.UserService]()
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve is the typed form of Container.Resolve.
//
//	users, err := container.Resolve[services.UserService](c)
func Resolve[T any](c *Container, qualifier ...string) (T, error) {
	var zero T
	v, err := c.Resolve(TypeOf[T](), qualifier...)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%s] got %T", TypeOf[T](), v)
	}
	return typed, nil
}

// Make is Resolve that panics on failure. Use it where a missing dependency
// is a programming error, e.g. in main.
func Make[T any](c *Container, qualifier ...string) T {
	v, err := Resolve[T](c, qualifier...)
	if err != nil {
		panic(err)
	}
	return v
}
