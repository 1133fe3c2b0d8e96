package container

import "fmt"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the registrations of one package.
//
// Register only records constructors. Boot runs after every provider has
// registered and after LoadAll, so it may resolve anything.
//
//	type UserProvider struct{ container.BaseProvider }
//
//	func (UserProvider) Register(c *container.Container) error {
//	    return container.Service(c, services.NewUserService,
//	        container.As[services.UserService]())
//	}
type ServiceProvider interface {
	Register(c *Container) error
	Boot(c *Container) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op Boot.
type BaseProvider struct{}

func (BaseProvider) Boot(_ *Container) error { return nil }

// ProviderFunc adapts a plain registration function, such as a package's
// Register, into a ServiceProvider.
type ProviderFunc func(c *Container) error

func (f ProviderFunc) Register(c *Container) error { return f(c) }
func (f ProviderFunc) Boot(_ *Container) error     { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry runs the register and boot phases of a set of providers.
type ProviderRegistry struct {
	c         *Container
	providers []ServiceProvider
	booted    bool
}

// NewProviderRegistry creates a registry bound to c.
func NewProviderRegistry(c *Container) *ProviderRegistry {
	return &ProviderRegistry{c: c}
}

// Register calls provider.Register immediately. A provider added after Boot
// is booted on the spot.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if err := provider.Register(r.c); err != nil {
		return fmt.Errorf("register %T: %w", provider, err)
	}
	r.providers = append(r.providers, provider)

	if r.booted {
		if err := provider.Boot(r.c); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// Boot calls Boot on every provider in registration order. It runs once.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, p := range r.providers {
		if err := p.Boot(r.c); err != nil {
			return fmt.Errorf("boot %T: %w", p, err)
		}
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }
