// Package inject defines a helper for building a dependency injection
// framework.
//
// Dependency injection means dynamically passing arguments to a function
// based on the parameters it declares. This package does not provide a
// framework itself — it provides the resolution helper you would build
// one on top of:
//
//	func handler(db *sql.DB, logger *Logger) error { ... }
//
//	vals := inject.NewValues().Supply(db, logger)
//	deps, err := inject.Resolve(handler, vals)
//	// deps.Args now holds {db, logger}, in declaration order.
//
// Go's reflection cannot recover function parameter names, so resolution
// works on two complementary axes:
//
//   - Function parameters resolve by type: each parameter is matched
//     against the values registered with Values.Supply. Interface
//     parameters accept a uniquely assignable concrete value.
//   - Struct fields resolve by name: exported fields are treated as named
//     parameters, matched against Values.Provide entries by field name or
//     by an `inject` tag. A field's pre-set value acts as its default when
//     the tag marks it optional.
//
// The entry points are SignatureOf, which inspects a target and reports
// its parameters, Resolve, which pairs parameters with available values,
// and Call, which resolves and then invokes the target.
package inject
