package container

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// ── Scope & Role ──────────────────────────────────────────────────────────────

// Scope controls how many instances a descriptor produces.
type Scope uint8

const (
	// Singleton builds once and shares the instance with every consumer.
	Singleton Scope = iota
	// Prototype builds a fresh instance on every resolution.
	Prototype
)

func (s Scope) String() string {
	if s == Prototype {
		return "prototype"
	}
	return "singleton"
}

// Role is the tier a component belongs to. It drives the startup load order.
type Role uint8

const (
	RoleComponent Role = iota
	RoleInfrastructure
	RoleRepository
	RoleService
	RoleController
)

func (r Role) String() string {
	switch r {
	case RoleInfrastructure:
		return "infrastructure"
	case RoleRepository:
		return "repository"
	case RoleService:
		return "service"
	case RoleController:
		return "controller"
	default:
		return "component"
	}
}

// ── Descriptor ────────────────────────────────────────────────────────────────

// Descriptor is the registration metadata of one concrete type.
type Descriptor struct {
	Type       reflect.Type
	Role       Role
	Scope      Scope
	Qualifier  string
	Lazy       bool
	Interfaces []reflect.Type

	ctor       reflect.Value
	params     []param
	in         reflect.Type // non-nil when the constructor takes a parameter object
	returnsErr bool
}

// param is one constructor dependency.
type param struct {
	name      string
	typ       reflect.Type
	qualifier string // field-level override, empty means "use the owner's"
	optional  bool
	field     int // index into the parameter object, -1 for positional
}

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	inType    = reflect.TypeOf(In{})
)

// In marks a parameter object. A constructor taking a single struct that
// embeds In gets every exported field resolved on its own:
//
//	type UserControllerParams struct {
//	    container.In
//
//	    Users services.UserService
//	    Cache  *middleware.Cache `qualifier:"users"`
//	    Stats  *metrics.Stats    `optional:"true"`
//	}
type In struct{}

// describe validates ctor and turns it into a Descriptor.
func describe(ctor any, o options) (*Descriptor, error) {
	v := reflect.ValueOf(ctor)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, &RegistrationError{Subject: fmt.Sprintf("%T", ctor), Reason: "constructor must be a non-nil function"}
	}
	ft := v.Type()
	subject := ft.String()

	if ft.IsVariadic() {
		return nil, &RegistrationError{Subject: subject, Reason: "variadic constructors are not supported"}
	}

	returnsErr := false
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, &RegistrationError{Subject: subject, Reason: "second result must be error"}
		}
		returnsErr = true
	default:
		return nil, &RegistrationError{Subject: subject, Reason: "constructor must return (T) or (T, error)"}
	}

	t := ft.Out(0)
	if t.Kind() == reflect.Interface {
		return nil, &RegistrationError{Subject: subject, Reason: "constructor must return a concrete type, got interface " + t.String()}
	}
	if err := checkInterfaces(subject, t, o.interfaces); err != nil {
		return nil, err
	}

	d := &Descriptor{
		Type:       t,
		Role:       o.role,
		Scope:      o.scope,
		Qualifier:  o.qualifier,
		Lazy:       o.lazy,
		Interfaces: o.interfaces,
		ctor:       v,
		returnsErr: returnsErr,
	}

	if ft.NumIn() == 1 && isParamObject(ft.In(0)) {
		d.in = ft.In(0)
		d.params = fieldParams(d.in)
		return d, nil
	}
	for i := range ft.NumIn() {
		d.params = append(d.params, param{name: "#" + strconv.Itoa(i), typ: ft.In(i), field: -1})
	}
	return d, nil
}

func checkInterfaces(subject string, t reflect.Type, ifaces []reflect.Type) error {
	for _, iface := range ifaces {
		if iface.Kind() != reflect.Interface {
			return &RegistrationError{Subject: subject, Reason: iface.String() + " is not an interface"}
		}
		if !t.Implements(iface) {
			return &RegistrationError{Subject: subject, Reason: t.String() + " does not implement " + iface.String()}
		}
	}
	return nil
}

func isParamObject(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := range t.NumField() {
		if f := t.Field(i); f.Anonymous && f.Type == inType {
			return true
		}
	}
	return false
}

func fieldParams(t reflect.Type) []param {
	var out []param
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous && f.Type == inType {
			continue
		}
		if !f.IsExported() {
			continue
		}
		out = append(out, param{
			name:      f.Name,
			typ:       f.Type,
			qualifier: f.Tag.Get("qualifier"),
			optional:  f.Tag.Get("optional") == "true",
			field:     i,
		})
	}
	return out
}

// ── Registrar ─────────────────────────────────────────────────────────────────

type binding struct {
	iface     reflect.Type
	qualifier string
}

// Registrar holds every Descriptor and the (interface, qualifier) index that
// points at their concrete types. Safe for concurrent use.
type Registrar struct {
	mu          sync.RWMutex
	descriptors map[reflect.Type]*Descriptor
	order       []reflect.Type

	// (interface, qualifier) → concrete type, plus insertion order so the
	// compatible-binding fallback is deterministic.
	bindings     map[binding]reflect.Type
	bindingOrder []binding

	log *zap.Logger
}

func newRegistrar(log *zap.Logger) *Registrar {
	return &Registrar{
		descriptors: make(map[reflect.Type]*Descriptor),
		bindings:    make(map[binding]reflect.Type),
		log:         log,
	}
}

// add stores d and binds it under its own type and every declared interface.
// Re-registering a type overwrites its descriptor; a binding key that already
// points at a different concrete type is overwritten too (last one wins) and
// logged.
func (r *Registrar) add(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.descriptors[d.Type]; !ok {
		r.order = append(r.order, d.Type)
	}
	r.descriptors[d.Type] = d

	for _, iface := range append([]reflect.Type{d.Type}, d.Interfaces...) {
		k := binding{iface: iface, qualifier: d.Qualifier}
		prev, exists := r.bindings[k]
		if !exists {
			r.bindingOrder = append(r.bindingOrder, k)
		} else if prev != d.Type {
			r.log.Warn("Interface binding overwritten",
				zap.String("interface", iface.String()),
				zap.String("qualifier", d.Qualifier),
				zap.String("previous", prev.String()),
				zap.String("current", d.Type.String()),
			)
		}
		r.bindings[k] = d.Type
	}
}

// Descriptor returns the descriptor registered for the concrete type t.
func (r *Registrar) Descriptor(t reflect.Type) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[t]
	return d, ok
}

// Descriptors returns every descriptor in registration order.
func (r *Registrar) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.descriptors[t])
	}
	return out
}

// Binding returns the concrete type bound to exactly (iface, qualifier).
func (r *Registrar) Binding(iface reflect.Type, qualifier string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bindings[binding{iface, qualifier}]
	return t, ok
}

// lookup finds the implementation for t, trying in order: the exact
// (t, qualifier) binding, the qualifier-agnostic (t, "") binding, then the
// first binding whose concrete type is assignable to t and whose qualifier
// matches or is unset.
func (r *Registrar) lookup(t reflect.Type, qualifier string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.bindings[binding{t, qualifier}]; ok {
		return c, true
	}
	if c, ok := r.bindings[binding{t, ""}]; ok {
		return c, true
	}
	for _, k := range r.bindingOrder {
		if k.qualifier != qualifier && k.qualifier != "" {
			continue
		}
		if c := r.bindings[k]; c.AssignableTo(t) {
			return c, true
		}
	}
	return nil, false
}

// ── Options ───────────────────────────────────────────────────────────────────

type options struct {
	role       Role
	scope      Scope
	qualifier  string
	lazy       bool
	interfaces []reflect.Type
}

// Option customises a registration.
type Option func(*options)

// WithRole sets the tier of the component.
func WithRole(r Role) Option { return func(o *options) { o.role = r } }

// WithScope sets singleton or prototype scope.
func WithScope(s Scope) Option { return func(o *options) { o.scope = s } }

// WithQualifier lets several implementations of one interface coexist.
func WithQualifier(q string) Option { return func(o *options) { o.qualifier = q } }

// Lazy controls whether LoadAll builds the component at startup.
func Lazy(lazy bool) Option { return func(o *options) { o.lazy = lazy } }

// As additionally binds the component under the interface I.
//
//	container.Service(c, NewUserService, container.As[UserService]())
func As[I any]() Option {
	t := TypeOf[I]()
	return func(o *options) { o.interfaces = append(o.interfaces, t) }
}

func buildOptions(opts []Option) options {
	o := options{role: RoleComponent, scope: Singleton, lazy: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
