package contract

import (
	"context"

	"github.com/roach88/covenant/pkg/binding"
)

// Predicate decides whether a condition holds for a binding set.
//
// Returning an error means the predicate could not decide; it is reported
// as an *EvaluationError, never as a plain failure.
type Predicate interface {
	Check(ctx context.Context, args binding.Set) (bool, error)
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(ctx context.Context, args binding.Set) (bool, error)

// Check implements Predicate.
func (f PredicateFunc) Check(ctx context.Context, args binding.Set) (bool, error) {
	return f(ctx, args)
}

// Check builds a Predicate from a plain boolean function.
func Check(fn func(args binding.Set) bool) Predicate {
	return PredicateFunc(func(_ context.Context, args binding.Set) (bool, error) {
		return fn(args), nil
	})
}

// CheckErr builds a Predicate from a function that may fail.
func CheckErr(fn func(args binding.Set) (bool, error)) Predicate {
	return PredicateFunc(func(_ context.Context, args binding.Set) (bool, error) {
		return fn(args)
	})
}
