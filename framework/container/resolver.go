package container

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// resolution is the per-call stack of concrete types currently being built.
// Every top-level Resolve starts a fresh one, so concurrent callers never see
// each other's in-flight types. A constructor that takes *Container receives
// a view whose Resolve continues the stack it was built on.
type resolution struct {
	path []reflect.Type
}

func (s *resolution) push(t reflect.Type) { s.path = append(s.path, t) }
func (s *resolution) pop()                { s.path = s.path[:len(s.path)-1] }

func (s *resolution) cycle(t reflect.Type) *CircularDependencyError {
	i := slices.Index(s.path, t)
	if i < 0 {
		return nil
	}
	path := append(slices.Clone(s.path[i:]), t)
	return &CircularDependencyError{Path: path}
}

var containerType = TypeOf[*Container]()

// resolver builds instances from descriptors.
type resolver struct {
	root       *Container
	registrar  *Registrar
	registry   *Registry
	singletons sync.Map // reflect.Type → any
	building   sync.Map // reflect.Type → *sync.Mutex
	log        *zap.Logger

	hooksMu sync.RWMutex
	hooks   []func(*Descriptor, any)
}

// resolve returns the implementation of t for the given qualifier.
func (r *resolver) resolve(t reflect.Type, qualifier string, s *resolution) (any, error) {
	if concrete, ok := r.registrar.lookup(t, qualifier); ok {
		return r.build(concrete, s)
	}
	if v, ok := r.registry.Lookup(t, qualifier); ok {
		return v, nil
	}
	if qualifier != "" {
		if v, ok := r.registry.Lookup(t, ""); ok {
			return v, nil
		}
	}
	return nil, &NotRegisteredError{Type: t, Qualifier: qualifier}
}

// build constructs (or returns the cached singleton of) the concrete type t.
func (r *resolver) build(t reflect.Type, s *resolution) (any, error) {
	d, ok := r.registrar.Descriptor(t)
	if !ok {
		return nil, &NotRegisteredError{Type: t}
	}
	if d.Scope == Singleton {
		if v, ok := r.singletons.Load(t); ok {
			return v, nil
		}
	}
	if err := s.cycle(t); err != nil {
		return nil, err
	}

	if d.Scope == Singleton {
		// One constructor call per singleton; later builders wait and reuse it.
		mu, _ := r.building.LoadOrStore(t, new(sync.Mutex))
		mu.(*sync.Mutex).Lock()
		defer mu.(*sync.Mutex).Unlock()
		if v, ok := r.singletons.Load(t); ok {
			return v, nil
		}
	}

	s.push(t)
	defer s.pop()

	args, err := r.arguments(d, s)
	if err != nil {
		return nil, err
	}

	instance, err := r.construct(d, args)
	if err != nil {
		return nil, err
	}

	if d.Scope == Prototype {
		r.fire(d, instance)
		return instance, nil
	}

	r.singletons.Store(t, instance)
	r.registry.Register(t, instance, d.Qualifier)
	for _, iface := range d.Interfaces {
		r.registry.Register(iface, instance, d.Qualifier)
	}
	r.log.Debug("Component initialized",
		zap.String("type", t.String()),
		zap.Stringer("role", d.Role),
		zap.String("qualifier", d.Qualifier),
	)
	r.fire(d, instance)
	return instance, nil
}

// arguments resolves every constructor parameter of d.
func (r *resolver) arguments(d *Descriptor, s *resolution) ([]reflect.Value, error) {
	values := make([]reflect.Value, len(d.params))
	for i, p := range d.params {
		q := p.qualifier
		if q == "" {
			q = d.Qualifier
		}
		if p.typ == containerType {
			values[i] = reflect.ValueOf(r.scoped(s))
			continue
		}
		v, err := r.resolve(p.typ, q, s)
		switch {
		case err == nil:
			values[i] = reflect.ValueOf(v)
		case p.optional && errors.Is(err, ErrServiceNotRegistered):
			values[i] = reflect.Zero(p.typ)
		default:
			var cycle *CircularDependencyError
			if errors.As(err, &cycle) {
				return nil, err
			}
			return nil, &DependencyError{Owner: d.Type, Param: p.name, Type: p.typ, Err: err}
		}
	}

	if d.in == nil {
		return values, nil
	}
	obj := reflect.New(d.in).Elem()
	for i, p := range d.params {
		obj.Field(p.field).Set(values[i])
	}
	return []reflect.Value{obj}, nil
}

// scoped returns a view of the root container whose Resolve starts from the
// types on s.
func (r *resolver) scoped(s *resolution) *Container {
	view := *r.root
	view.trail = slices.Clone(s.path)
	return &view
}

// construct calls the constructor, turning panics, returned errors and nil
// results into a *ConstructionError.
func (r *resolver) construct(d *Descriptor, args []reflect.Value) (instance any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ConstructionError{Type: d.Type, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	out := d.ctor.Call(args)
	if d.returnsErr && !out[1].IsNil() {
		return nil, &ConstructionError{Type: d.Type, Err: out[1].Interface().(error)}
	}
	if isNil(out[0]) {
		return nil, &ConstructionError{Type: d.Type, Err: errors.New("constructor returned nil")}
	}
	return out[0].Interface(), nil
}

func (r *resolver) onResolved(fn func(*Descriptor, any)) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.hooks = append(r.hooks, fn)
}

func (r *resolver) fire(d *Descriptor, instance any) {
	r.hooksMu.RLock()
	hooks := r.hooks
	r.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(d, instance)
	}
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
