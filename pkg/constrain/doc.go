// Package constrain builds contract conditions from per-value checks.
//
// A ValueCheck tests a single value. Arg turns one into a precondition on a
// named argument and Returns turns one into a postcondition on the result:
//
//	positive := constrain.Is(func(n int) bool { return n > 0 })
//	guarded, err := contract.Declare(sqrt,
//	    constrain.Arg("x", constrain.MustTag("gte=0")),
//	    constrain.Returns(positive),
//	)
//
// Checks can be written as Go functions (Is), validator tags (Tag) or CUE
// constraints (CUE, FromValue). StructCheck goes one level up and checks a
// whole binding set against a CUE struct whose fields name bindings.
package constrain
