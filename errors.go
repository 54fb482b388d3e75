package inject

import (
	"reflect"
	"strconv"
)

// UnusableError is returned when a signature cannot be determined for a
// target. Only funcs, method values, structs, pointers to structs, and
// Caller implementations are supported.
type UnusableError struct {
	// Target is the value that could not be inspected.
	Target any
}

// Error implements the error interface.
func (e UnusableError) Error() string {
	// Example: inject: cannot determine a signature for int
	return "inject: cannot determine a signature for " + describeTarget(e.Target)
}

// MissingDependencyError is returned by Call when a required parameter has
// no available value and no default.
//
// It is a struct error rather than an fmt.Errorf so callers can use
// errors.As to distinguish "missing" from other failures without paying
// formatting costs on the lookup path.
type MissingDependencyError struct {
	// Param identifies the unresolved parameter: the field name for struct
	// targets, or the parameter type for function targets.
	Param string
}

// Error implements the error interface.
func (e MissingDependencyError) Error() string {
	// Example: inject: no value available for parameter "db"
	return "inject: no value available for parameter " + strconv.Quote(e.Param)
}

// WrongTypeDependencyError is returned when a named registration exists
// for a parameter but its value is not assignable to the parameter type.
type WrongTypeDependencyError struct {
	// Param identifies the parameter being resolved.
	Param string

	// GotType is the type of the registered value.
	GotType string
}

// Error implements the error interface.
func (e WrongTypeDependencyError) Error() string {
	// Example: inject: parameter "db" has wrong type (*mypkg.Logger)
	return "inject: parameter " + strconv.Quote(e.Param) + " has wrong type (" + e.GotType + ")"
}

// AmbiguousDependencyError is returned when an interface parameter matches
// more than one supplied value, so no single assignment can be chosen.
type AmbiguousDependencyError struct {
	// Param is the interface type being resolved.
	Param string

	// Candidates lists the types of all supplied values that satisfy it.
	Candidates []string
}

// Error implements the error interface.
func (e AmbiguousDependencyError) Error() string {
	msg := "inject: multiple values satisfy parameter " + strconv.Quote(e.Param)
	for i, c := range e.Candidates {
		if i == 0 {
			msg += " ("
		} else {
			msg += ", "
		}
		msg += c
	}
	if len(e.Candidates) > 0 {
		msg += ")"
	}
	return msg
}

// describeTarget renders a target for error messages. Typed values render
// as their reflect type; untyped nil renders as "<nil>".
func describeTarget(target any) string {
	if target == nil {
		return "<nil>"
	}
	return reflect.TypeOf(target).String()
}
