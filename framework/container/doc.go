// Package container is a type-keyed dependency injection container with an
// explicit registration pass and tiered startup loading.
//
// # Overview
//
// Components are registered by constructor. The first result of the
// constructor is the concrete type; its parameters are the dependencies.
// Interfaces are declared with As, several implementations of one interface
// are told apart by qualifier.
//
//	c := container.New(logger)
//
//	container.Infrastructure(c, database.New)
//	container.Repository(c, repositories.NewUserRepository,
//	    container.As[repositories.UserRepository]())
//	container.Service(c, services.NewUserService,
//	    container.As[services.UserService]())
//	container.Controller(c, controllers.NewUserAccountController)
//
//	if err := c.LoadAll(); err != nil { ... }
//
// # Lifecycle
//
//  1. Create: c := container.New(log)
//  2. Register: every package's Register(c) or a ServiceProvider
//  3. Load: c.LoadAll() builds Infrastructure, Component, Repository,
//     Service and Controller tiers in that order
//  4. Boot: providers resolve what they need and routes are composed
//
// # Resolving
//
//	users, err := container.Resolve[services.UserService](c)
//	cache := container.Make[*middleware.Cache](c) // panics on failure
//
// A dependency of type P for a component with qualifier q is looked up as
//
//  1. the binding (P, q)
//  2. the binding (P, "")
//  3. the first registered type assignable to P with qualifier q or none
//  4. an Instance stored under P
//
// # Parameter objects
//
// Constructors with many dependencies can take a struct embedding In:
//
//	type Params struct {
//	    container.In
//
//	    Users   services.UserService
//	    Primary *sqlx.DB            `qualifier:"primary"`
//	    Metrics *middleware.Metrics `optional:"true"`
//	}
//
//	func NewReportController(p Params) *ReportController { ... }
//
// # Scopes
//
// Singleton (default) instances are built once and stored in the Registry.
// Prototype instances are built on every resolution and never stored.
//
// # Errors
//
// Every error matches one of the sentinels with errors.Is:
// ErrCircularDependency, ErrDependencyResolution, ErrServiceNotRegistered,
// ErrInvalidRegistration and ErrConstruction.
package container
