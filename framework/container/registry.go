package container

import (
	"reflect"
	"sort"
	"sync"
)

// key identifies a live instance.
type key struct {
	typ       reflect.Type
	qualifier string
}

// Entry is a read-only view of one registry slot.
type Entry struct {
	Type      reflect.Type
	Qualifier string
	Instance  any
}

// Registry maps (type, qualifier) to a live instance. It is pure storage:
// it never constructs anything. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	services map[key]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[key]any)}
}

// Register stores instance under (t, qualifier), replacing any previous one.
func (r *Registry) Register(t reflect.Type, instance any, qualifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[key{t, qualifier}] = instance
}

// Lookup returns the instance stored under (t, qualifier).
func (r *Registry) Lookup(t reflect.Type, qualifier string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.services[key{t, qualifier}]
	return v, ok
}

// Resolve is Lookup with a *NotRegisteredError on a miss.
func (r *Registry) Resolve(t reflect.Type, qualifier string) (any, error) {
	if v, ok := r.Lookup(t, qualifier); ok {
		return v, nil
	}
	return nil, &NotRegisteredError{Type: t, Qualifier: qualifier}
}

// Has reports whether an instance is stored under (t, qualifier).
func (r *Registry) Has(t reflect.Type, qualifier string) bool {
	_, ok := r.Lookup(t, qualifier)
	return ok
}

// Forget drops the instance stored under (t, qualifier).
func (r *Registry) Forget(t reflect.Type, qualifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, key{t, qualifier})
}

// Len returns the number of stored instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

// Entries returns every slot sorted by type name, then qualifier.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.services))
	for k, v := range r.services {
		out = append(out, Entry{Type: k.typ, Qualifier: k.qualifier, Instance: v})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if a, b := out[i].Type.String(), out[j].Type.String(); a != b {
			return a < b
		}
		return out[i].Qualifier < out[j].Qualifier
	})
	return out
}
