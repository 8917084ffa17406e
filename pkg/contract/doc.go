// Package contract enforces preconditions, postconditions and invariants at
// run time.
//
// # Declaring contracts
//
// A contract is attached to a Callable, a value that knows its parameter
// schema. Function is the usual Callable:
//
//	divide := contract.NewFunction("divide",
//	    binding.MustSchema([]binding.Param{binding.Required("a"), binding.Required("b")}),
//	    func(ctx context.Context, args binding.Set) (any, error) {
//	        return binding.MustGet[int](args, "a") / binding.MustGet[int](args, "b"), nil
//	    })
//
//	guarded, err := contract.Declare(divide,
//	    contract.Pre("b is nonzero", contract.Check(func(args binding.Set) bool {
//	        return binding.MustGet[int](args, "b") != 0
//	    })),
//	    contract.Post("result bounded by a", contract.Check(func(args binding.Set) bool {
//	        return binding.MustGet[int](args, binding.ResultName) <= binding.MustGet[int](args, "a")
//	    })),
//	)
//
// Declaring on a target that is already a *Guard appends to that guard's
// condition lists; guards never nest. Conditions run in declaration order.
//
// # Evaluation
//
// Each call is bound against the schema (see package binding), preconditions
// run in order, the body runs, and postconditions run in order with the
// result bound to binding.ResultName. The first failing condition stops the
// call with a *Violation. A predicate that returns an error or panics is
// reported as a *Violation whose Cause is an *EvaluationError; a predicate
// that returns false gives a Cause of *ConditionFailure. A call that cannot be
// bound fails with a *binding.Error before any condition runs.
//
// # Invariants
//
// Invariant[T] brackets methods of a type with an instance condition. Types
// opt in by writing a delegating wrapper whose methods go through Do or
// Method. Only the outermost guarded call on an instance is checked; nested
// calls made through the same context.Context are transparent.
//
// # Toggle
//
// A Toggle is consulted once, when conditions are declared. Declaring while
// the toggle is off returns the target unchanged, so a disabled contract
// costs nothing per call. Flipping the toggle later does not affect targets
// that were already declared.
package contract
