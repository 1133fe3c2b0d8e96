package validation

import (
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors is the field → messages bag returned with a 422.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error makes a failed bag usable as an error value.
func (e *Errors) Error() string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e.Bag[f]...)
	}
	return "validation failed: " + strings.Join(msgs, " ")
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"email": "required|email", "password": "required|min:8"}
type Rules map[string]string

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make creates a new Validator over data.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{data: data, rules: rules, errors: &Errors{}}
}

// Struct validates the exported fields of v (a struct or struct pointer)
// against their `validate` tags. Field names in the bag follow the `json`
// tag so they match what the client sent:
//
//	type UserCreate struct {
//	    Email    string `json:"email"    validate:"required|email"`
//	    Password string `json:"password" validate:"required|min:8"`
//	}
//
// Nil pointer fields are treated as absent, which makes `sometimes` the
// natural rule for partial updates.
func Struct(v any) *Errors {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		e := &Errors{}
		e.add("_", fmt.Sprintf("cannot validate %T", v))
		return e
	}

	data := map[string]string{}
	rules := Rules{}
	rt := rv.Type()
	for i := range rt.NumField() {
		f := rt.Field(i)
		tag, ok := f.Tag.Lookup("validate")
		if !ok || !f.IsExported() {
			continue
		}
		name := jsonName(f)
		rules[name] = tag
		data[name] = stringify(rv.Field(i))
	}

	val := Make(data, rules)
	val.Fails()
	return val.Errors()
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	if !v.ran {
		v.validate()
		v.ran = true
	}
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// ── Core validation loop ─────────────────────────────────────────────────────

func (v *Validator) validate() {
	fields := make([]string, 0, len(v.rules))
	for f := range v.rules {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	for _, field := range fields {
		value := v.data[field]
		for _, rule := range strings.Split(v.rules[field], "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			name, param, _ := strings.Cut(rule, ":")
			if !v.applyRule(field, value, name, param) {
				break // first failure wins for a field
			}
		}
	}
}

var (
	urlPattern      = regexp.MustCompile(`^https?://`)
	alphaPattern    = regexp.MustCompile(`^[a-zA-Z]+$`)
	alphaNumPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alphaDash       = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// applyRule returns true if the rule passes and later rules should run.
func (v *Validator) applyRule(field, value, rule, param string) bool {
	fail := func(format string, args ...any) bool {
		v.errors.add(field, fmt.Sprintf(format, args...))
		return false
	}

	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			return fail("The %s field is required.", field)
		}
	case "sometimes", "nullable":
		// Absent values skip the remaining rules silently.
		if value == "" {
			return false
		}
	case "string":
	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			return fail("The %s must be an integer.", field)
		}
	case "numeric":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fail("The %s must be a number.", field)
		}
	case "boolean":
		if _, err := strconv.ParseBool(value); err != nil {
			return fail("The %s field must be true or false.", field)
		}
	case "email":
		if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
			return fail("The %s must be a valid email address.", field)
		}
	case "url":
		if !urlPattern.MatchString(value) {
			return fail("The %s must be a valid URL.", field)
		}
	case "min":
		if n, _ := strconv.Atoi(param); utf8.RuneCountInString(value) < n {
			return fail("The %s must be at least %d characters.", field, n)
		}
	case "max":
		if n, _ := strconv.Atoi(param); utf8.RuneCountInString(value) > n {
			return fail("The %s may not be greater than %d characters.", field, n)
		}
	case "in":
		if !slices.Contains(splitList(param), value) {
			return fail("The selected %s is invalid.", field)
		}
	case "confirmed":
		if v.data[field+"_confirmation"] != value {
			return fail("The %s confirmation does not match.", field)
		}
	case "same":
		if v.data[param] != value {
			return fail("The %s and %s must match.", field, param)
		}
	case "alpha":
		if !alphaPattern.MatchString(value) {
			return fail("The %s may only contain letters.", field)
		}
	case "alpha_num":
		if !alphaNumPattern.MatchString(value) {
			return fail("The %s may only contain letters and numbers.", field)
		}
	case "alpha_dash":
		if !alphaDash.MatchString(value) {
			return fail("The %s may only contain letters, numbers, dashes and underscores.", field)
		}
	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			return fail("The %s format is invalid.", field)
		}
	}
	return true
}

// ── helpers ──────────────────────────────────────────────────────────────────

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func jsonName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func stringify(v reflect.Value) string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	}
	return fmt.Sprint(v.Interface())
}
