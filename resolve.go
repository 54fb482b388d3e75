package inject

import "reflect"

// Dependencies is the result of pairing a target's parameters with
// available values.
type Dependencies struct {
	// Args holds the resolved argument values in declaration order.
	// Parameters that could not be resolved and have no default are
	// absent, so Args may be shorter than Signature.Params — Call is the
	// place where missing required parameters become errors.
	Args []any

	// Named maps each resolved parameter to its value, keyed by the
	// parameter name for struct fields or by the type string for function
	// parameters. Args and Named carry the same values; which one a
	// framework consumes is a matter of taste.
	Named map[string]any

	// Signature is the inspected signature of the target.
	Signature *Signature
}

// resolution records the outcome for a single parameter.
type resolution struct {
	param Param
	value any
	ok    bool
}

// Resolve inspects the target and pairs each of its parameters with a
// value from available.
//
// For every parameter, in declaration order:
//   - a registered value wins (by name for struct fields, falling back to
//     type; by type for function parameters);
//   - otherwise an optional parameter contributes its default;
//   - otherwise the parameter is skipped.
//
// A skipped required parameter is not an error here — Resolve reports
// what could be resolved, and Call enforces completeness.
func Resolve(target any, available *Values) (*Dependencies, error) {
	sig, err := SignatureOf(target)
	if err != nil {
		return nil, err
	}

	resolutions, err := resolveParams(sig, available)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{Named: make(map[string]any), Signature: sig}
	for _, r := range resolutions {
		if !r.ok {
			continue
		}
		deps.Args = append(deps.Args, r.value)
		deps.Named[paramKey(r.param)] = r.value
	}
	return deps, nil
}

// resolveParams walks the signature's parameters and looks each one up in
// the available values. Only an ambiguous interface match is an error.
func resolveParams(sig *Signature, available *Values) ([]resolution, error) {
	out := make([]resolution, 0, len(sig.Params))

	for _, p := range sig.Params {
		r := resolution{param: p}

		if p.Name != "" {
			if val, ok := available.Get(p.Name); ok {
				r.value, r.ok = val, true
			}
		}
		if !r.ok {
			val, ok, err := available.ByType(p.Type)
			if err != nil {
				return nil, err
			}
			if ok {
				r.value, r.ok = val, true
			}
		}
		if !r.ok && p.Optional {
			r.value, r.ok = p.Default, true
		}

		out = append(out, r)
	}
	return out, nil
}

// Call resolves the target's dependencies and invokes it.
//
// Behavior by target shape:
//   - Funcs: every required parameter must resolve, the function is
//     invoked, and its results are returned. A trailing error return is
//     split off and returned as Call's error rather than as a result.
//   - Structs and pointers to structs: a copy of the inspected instance
//     is populated with the resolved fields and returned as the single
//     result, matching the shape (value or pointer) the target had.
//   - Caller implementations: invoked directly with the available values.
func Call(target any, available *Values) ([]any, error) {
	sig, err := SignatureOf(target)
	if err != nil {
		return nil, err
	}

	if sig.kind == kindCaller {
		result, err := sig.caller.Call(available)
		if err != nil {
			return nil, err
		}
		return []any{result}, nil
	}

	resolutions, err := resolveParams(sig, available)
	if err != nil {
		return nil, err
	}
	for _, r := range resolutions {
		if !r.ok {
			return nil, MissingDependencyError{Param: paramKey(r.param)}
		}
	}

	if sig.kind == kindStruct {
		return callStruct(sig, resolutions)
	}
	return callFunc(sig, resolutions)
}

// callFunc invokes a function target with the resolved arguments.
func callFunc(sig *Signature, resolutions []resolution) ([]any, error) {
	t := sig.fn.Type()

	args := make([]reflect.Value, 0, len(resolutions))
	variadic := t.IsVariadic()
	spreadTail := false

	for i, r := range resolutions {
		val, err := argValue(r)
		if err != nil {
			return nil, err
		}
		if variadic && i == len(resolutions)-1 {
			// The tail argument is the whole slice; CallSlice spreads it.
			spreadTail = true
		}
		args = append(args, val)
	}

	var results []reflect.Value
	if spreadTail {
		results = sig.fn.CallSlice(args)
	} else {
		results = sig.fn.Call(args)
	}

	return splitError(t, results)
}

// argValue converts a resolution into a reflect.Value assignable to the
// parameter. A provided nil becomes the parameter type's zero value.
func argValue(r resolution) (reflect.Value, error) {
	if r.value == nil {
		return reflect.Zero(r.param.Type), nil
	}
	v := reflect.ValueOf(r.value)
	if !v.Type().AssignableTo(r.param.Type) {
		return reflect.Value{}, WrongTypeDependencyError{
			Param:   paramKey(r.param),
			GotType: v.Type().String(),
		}
	}
	return v, nil
}

// splitError separates a trailing error return from the other results.
// The error slot is stripped from the results whether or not it is nil,
// so callers see a stable result shape.
func splitError(t reflect.Type, results []reflect.Value) ([]any, error) {
	n := t.NumOut()
	hasErr := n > 0 && t.Out(n-1) == errorType

	out := make([]any, 0, n)
	for i, rv := range results {
		if hasErr && i == n-1 {
			if !rv.IsNil() {
				return nil, rv.Interface().(error)
			}
			break
		}
		out = append(out, rv.Interface())
	}
	return out, nil
}

// errorType is the reflect.Type of the error interface, used to detect a
// trailing error return.
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// callStruct populates a copy of the inspected instance with the resolved
// field values and returns it in the same shape the target had.
func callStruct(sig *Signature, resolutions []resolution) ([]any, error) {
	obj := reflect.New(sig.structType)
	obj.Elem().Set(sig.base)

	for _, r := range resolutions {
		val, err := argValue(r)
		if err != nil {
			return nil, err
		}
		obj.Elem().Field(r.param.Index).Set(val)
	}

	if sig.wantPtr {
		return []any{obj.Interface()}, nil
	}
	return []any{obj.Elem().Interface()}, nil
}
