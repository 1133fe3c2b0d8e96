package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ── Sentinels ─────────────────────────────────────────────────────────────────

var (
	// ErrCircularDependency is matched by errors.Is when a constructor chain
	// loops back onto a type that is still being built.
	ErrCircularDependency = errors.New("container: circular dependency")

	// ErrDependencyResolution is matched when a constructor parameter could
	// not be satisfied.
	ErrDependencyResolution = errors.New("container: dependency resolution failed")

	// ErrServiceNotRegistered is matched when neither a binding nor a live
	// instance exists for the requested type.
	ErrServiceNotRegistered = errors.New("container: service not registered")

	// ErrInvalidRegistration is matched when a constructor or instance
	// cannot be registered.
	ErrInvalidRegistration = errors.New("container: invalid registration")

	// ErrConstruction is matched when a constructor returned an error,
	// returned nil or panicked.
	ErrConstruction = errors.New("container: construction failed")
)

// ── Typed errors ──────────────────────────────────────────────────────────────

// CircularDependencyError reports the constructor path that closed a loop.
// The last element of Path is the type that was requested twice.
type CircularDependencyError struct {
	Path []reflect.Type
}

func (e *CircularDependencyError) Error() string {
	names := make([]string, len(e.Path))
	for i, t := range e.Path {
		names[i] = t.String()
	}
	return fmt.Sprintf("container: circular dependency detected while initializing %s (%s)",
		e.Path[len(e.Path)-1], strings.Join(names, " -> "))
}

func (e *CircularDependencyError) Is(target error) bool { return target == ErrCircularDependency }

// DependencyError names the parameter of Owner that could not be resolved.
type DependencyError struct {
	Owner reflect.Type
	Param string
	Type  reflect.Type
	Err   error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("container: failed to resolve dependency '%s: %s' for %s: %v",
		e.Param, e.Type, e.Owner, e.Err)
}

func (e *DependencyError) Is(target error) bool { return target == ErrDependencyResolution }
func (e *DependencyError) Unwrap() error        { return e.Err }

// NotRegisteredError is returned by direct lookups that find nothing.
type NotRegisteredError struct {
	Type      reflect.Type
	Qualifier string
}

func (e *NotRegisteredError) Error() string {
	if e.Qualifier == "" {
		return fmt.Sprintf("container: service not found for %s", e.Type)
	}
	return fmt.Sprintf("container: service not found for %s with qualifier=%q", e.Type, e.Qualifier)
}

func (e *NotRegisteredError) Is(target error) bool { return target == ErrServiceNotRegistered }

// RegistrationError explains why a constructor or instance was rejected.
type RegistrationError struct {
	Subject string
	Reason  string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("container: cannot register %s: %s", e.Subject, e.Reason)
}

func (e *RegistrationError) Is(target error) bool { return target == ErrInvalidRegistration }

// ConstructionError wraps whatever went wrong inside a constructor.
type ConstructionError struct {
	Type reflect.Type
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("container: constructing %s: %v", e.Type, e.Err)
}

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }
func (e *ConstructionError) Unwrap() error        { return e.Err }
