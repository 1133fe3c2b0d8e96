package container

import (
	"fmt"
	"reflect"
)

// Inject fills the exported fields of the struct pointed to by target that
// carry an `inject` tag. The tag value is the qualifier:
//
//	type Handlers struct {
//	    Users services.UserService `inject:""`
//	    Cache *middleware.Cache    `inject:"users"`
//	}
//	err := c.Inject(&h)
//
// Fields that are already non-zero are left alone.
func (c *Container) Inject(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("container: Inject needs a non-nil struct pointer, got %T", target)
	}
	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		f := t.Field(i)
		qualifier, ok := f.Tag.Lookup("inject")
		if !ok || !f.IsExported() {
			continue
		}
		field := v.Field(i)
		if !field.IsZero() {
			continue
		}
		instance, err := c.Resolve(f.Type, qualifier)
		if err != nil {
			return &DependencyError{Owner: t, Param: f.Name, Type: f.Type, Err: err}
		}
		field.Set(reflect.ValueOf(instance))
	}
	return nil
}
