package inject

import (
	"reflect"
	"strings"
)

// Caller is the escape hatch for targets that want full control over their
// own resolution, analogous to making an object callable. SignatureOf
// accepts any Caller, and Call invokes it with the available values
// directly instead of resolving parameters one by one.
type Caller interface {
	Call(available *Values) (any, error)
}

// Param describes a single parameter of a target.
type Param struct {
	// Name is the parameter name. Populated for struct fields (the field
	// name, or the `inject` tag override); empty for function parameters,
	// whose names are not recoverable through reflection.
	Name string

	// Type is the parameter's static type.
	Type reflect.Type

	// Optional reports whether resolution may fall back to Default when no
	// value is available. Function targets mark only a variadic tail as
	// optional; struct fields opt in via an `inject:",optional"` tag.
	Optional bool

	// Default is the value used when an optional parameter is not
	// available. For a variadic tail this is the empty slice; for struct
	// fields it is the field's pre-set value on the inspected instance.
	Default any

	// Index is the parameter's position: the argument index for functions,
	// the field index for structs.
	Index int
}

// targetKind discriminates the supported target shapes.
type targetKind int

const (
	kindFunc targetKind = iota
	kindStruct
	kindCaller
)

// Signature describes the parameters of a target, in declaration order.
// It is produced by SignatureOf and consumed by Resolve and Call.
type Signature struct {
	// Params lists every parameter in declaration order.
	Params []Param

	kind targetKind

	// fn holds the reflected function for kindFunc targets.
	fn reflect.Value

	// structType is the underlying struct type for kindStruct targets.
	// base is the inspected instance, used as the template that Call
	// populates so unresolved optional fields keep their defaults.
	structType reflect.Type
	base       reflect.Value

	// wantPtr records whether the struct target was handed over as a
	// pointer, so Call can return the same shape it was given.
	wantPtr bool

	// caller holds the target for kindCaller.
	caller Caller
}

// Required returns the parameters that must be resolvable for Call to
// succeed, in declaration order.
func (s *Signature) Required() []Param {
	var out []Param
	for _, p := range s.Params {
		if !p.Optional {
			out = append(out, p)
		}
	}
	return out
}

// Optional returns the parameters that carry defaults, keyed by name for
// struct fields or by type string for a variadic tail.
func (s *Signature) Optional() map[string]any {
	out := make(map[string]any)
	for _, p := range s.Params {
		if p.Optional {
			out[paramKey(p)] = p.Default
		}
	}
	return out
}

// paramKey is the stable identifier for a parameter in maps and error
// messages: the declared name when there is one, the type otherwise.
func paramKey(p Param) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Type.String()
}

// SignatureOf inspects a target and returns its parameter signature.
//
// Supported targets, checked in this order:
//
//  1. Funcs and method values. Every fixed parameter is required; a
//     variadic tail is the one optional parameter, defaulting to empty.
//  2. Caller implementations, which bypass parameter inspection entirely
//     (their signature has no params).
//  3. Structs and pointers to structs. Exported fields are the
//     parameters; an `inject` tag can rename a field, mark it optional,
//     or exclude it with "-". The field's current value on the inspected
//     instance is its default.
//
// Anything else — including nil — returns an UnusableError.
func SignatureOf(target any) (*Signature, error) {
	if target == nil {
		return nil, UnusableError{Target: target}
	}

	// A Caller takes precedence over struct inspection: a struct that
	// implements Caller is asking to handle resolution itself.
	if c, ok := target.(Caller); ok {
		return &Signature{kind: kindCaller, caller: c}, nil
	}

	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Func:
		return funcSignature(v)
	case reflect.Struct:
		return structSignature(v, false)
	case reflect.Pointer:
		if !v.IsNil() && v.Elem().Kind() == reflect.Struct {
			return structSignature(v.Elem(), true)
		}
	}

	return nil, UnusableError{Target: target}
}

// funcSignature builds the signature for a func or method value.
func funcSignature(fn reflect.Value) (*Signature, error) {
	t := fn.Type()
	sig := &Signature{kind: kindFunc, fn: fn}

	for i := 0; i < t.NumIn(); i++ {
		p := Param{Type: t.In(i), Index: i}
		if t.IsVariadic() && i == t.NumIn()-1 {
			// The variadic tail behaves like a defaulted parameter: when
			// no slice of its type is available, the call proceeds with
			// zero variadic arguments.
			p.Optional = true
			p.Default = reflect.MakeSlice(p.Type, 0, 0).Interface()
		}
		sig.Params = append(sig.Params, p)
	}

	return sig, nil
}

// structSignature builds the signature for constructor-style injection
// into a struct's exported fields. The inspected instance is retained as
// the template for Call, so pre-set field values survive as defaults.
func structSignature(v reflect.Value, wantPtr bool) (*Signature, error) {
	t := v.Type()
	sig := &Signature{
		kind:       kindStruct,
		structType: t,
		base:       v,
		wantPtr:    wantPtr,
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, optional, skip := parseInjectTag(field)
		if skip {
			continue
		}

		p := Param{
			Name:     name,
			Type:     field.Type,
			Optional: optional,
			Index:    i,
		}
		if optional {
			p.Default = v.Field(i).Interface()
		}
		sig.Params = append(sig.Params, p)
	}

	return sig, nil
}

// parseInjectTag interprets a field's `inject` tag.
//
// Grammar:
//
//	inject:"-"              skip the field entirely
//	inject:"name"           rename the parameter
//	inject:"name,optional"  rename and mark optional
//	inject:",optional"      keep the field name, mark optional
//
// An absent tag means the field name is the parameter name and the
// parameter is required.
func parseInjectTag(field reflect.StructField) (name string, optional, skip bool) {
	name = field.Name

	tag, ok := field.Tag.Lookup("inject")
	if !ok {
		return name, false, false
	}
	if tag == "-" {
		return "", false, true
	}

	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "optional" {
			optional = true
		}
	}
	return name, optional, false
}
