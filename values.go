package inject

import "reflect"

// Values is the bag of available dependencies that resolution draws from.
// It supports two registration styles:
//
//   - Provide(name, v) registers a value under an explicit name, used when
//     resolving struct fields (named parameters).
//   - Supply(v...) registers values indexed by their dynamic type, used
//     when resolving function parameters (typed parameters).
//
// Both methods return the receiver so registrations chain:
//
//	vals := inject.NewValues().
//	    Provide("dsn", "postgres://localhost").
//	    Supply(db, logger)
//
// A nil *Values behaves as an empty bag for lookups.
type Values struct {
	named map[string]any
	typed []typedValue
}

// typedValue pairs a supplied value with its dynamic type. Registration
// order is preserved so exact-type lookups can let later registrations
// override earlier ones deterministically. name is set when the value
// arrived via Provide, so re-providing a name can retire its old entry.
type typedValue struct {
	val  any
	typ  reflect.Type
	name string
}

// NewValues returns an empty Values bag.
func NewValues() *Values {
	return &Values{named: make(map[string]any)}
}

// Provide registers a value under a name. Registering the same name twice
// replaces the earlier value. A nil value is a legitimate registration —
// lookups report it as present, so a provided nil beats a default.
func (v *Values) Provide(name string, val any) *Values {
	if v.named == nil {
		v.named = make(map[string]any)
	}
	v.named[name] = val

	// Re-providing a name retires its previous typed entry; a replaced
	// value must not linger where a typed lookup could still find it.
	// Supply registrations carry no name and are never retired here.
	if name != "" {
		kept := v.typed[:0]
		for _, tv := range v.typed {
			if tv.name != name {
				kept = append(kept, tv)
			}
		}
		v.typed = kept
	}

	// Named registrations with a concrete type also join the typed index,
	// so a value provided by name can still satisfy a typed parameter.
	if val != nil {
		v.typed = append(v.typed, typedValue{val: val, typ: reflect.TypeOf(val), name: name})
	}
	return v
}

// Supply registers values indexed by their dynamic type.
//
// Supply panics on an untyped nil argument: a nil interface carries no
// type, so there is nothing to index it under. Use Provide with a name,
// or pass a typed nil pointer, when a nil dependency is intended.
func (v *Values) Supply(vals ...any) *Values {
	for _, val := range vals {
		if val == nil {
			panic("inject: Supply called with untyped nil")
		}
		v.typed = append(v.typed, typedValue{val: val, typ: reflect.TypeOf(val)})
	}
	return v
}

// Get returns the value registered under name. The boolean reports
// presence, so a provided nil is distinguishable from an absent name.
func (v *Values) Get(name string) (any, bool) {
	if v == nil || v.named == nil {
		return nil, false
	}
	val, ok := v.named[name]
	return val, ok
}

// ByType returns the registered value matching the requested type.
//
// Lookup order:
//  1. Exact dynamic-type match. The most recent registration wins, which
//     lets tests override a supplied value by re-supplying.
//  2. For interface types only: a value whose type implements the
//     interface. The match must be unique; two or more candidates produce
//     an AmbiguousDependencyError.
//
// The boolean reports whether a value was found; the error is non-nil only
// for the ambiguous case.
func (v *Values) ByType(t reflect.Type) (any, bool, error) {
	if v == nil || t == nil {
		return nil, false, nil
	}

	// Exact match, scanning newest-first.
	for i := len(v.typed) - 1; i >= 0; i-- {
		if v.typed[i].typ == t {
			return v.typed[i].val, true, nil
		}
	}

	if t.Kind() != reflect.Interface {
		return nil, false, nil
	}

	// Interface satisfaction. Collect every assignable candidate so the
	// ambiguous case can name them all in the error.
	var (
		found      any
		candidates []string
	)
	for i := len(v.typed) - 1; i >= 0; i-- {
		if v.typed[i].typ.AssignableTo(t) {
			if len(candidates) == 0 {
				found = v.typed[i].val
			}
			candidates = append(candidates, v.typed[i].typ.String())
		}
	}

	switch len(candidates) {
	case 0:
		return nil, false, nil
	case 1:
		return found, true, nil
	default:
		return nil, false, AmbiguousDependencyError{Param: t.String(), Candidates: candidates}
	}
}

// Len reports the total number of registrations (named and typed).
// Values provided by name with a concrete type count once.
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	n := len(v.typed)
	// Named nils never reach the typed index, so count them separately.
	for _, val := range v.named {
		if val == nil {
			n++
		}
	}
	return n
}
