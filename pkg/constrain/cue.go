package constrain

import (
	"context"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

// contextLocks maps each *cue.Context to the mutex serializing its use.
// Values compiled from one manifest share a context, and a context is not
// safe for concurrent use.
var contextLocks sync.Map

func lockFor(ctx *cue.Context) *sync.Mutex {
	mu, _ := contextLocks.LoadOrStore(ctx, new(sync.Mutex))
	return mu.(*sync.Mutex)
}

// cueConstraint holds a compiled CUE value.
type cueConstraint struct {
	mu *sync.Mutex
	v  cue.Value
}

func newConstraint(v cue.Value) *cueConstraint {
	return &cueConstraint{mu: lockFor(v.Context()), v: v}
}

// unify encodes x into the constraint's context and validates the result.
// A conflict is a rejection; an unencodable value is an error.
func (c *cueConstraint) unify(x any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	enc := c.v.Context().Encode(x)
	if err := enc.Err(); err != nil {
		return false, fmt.Errorf("encode value for constraint: %w", err)
	}
	if err := c.v.Unify(enc).Validate(cue.Concrete(true)); err != nil {
		return false, contract.Reject("%s", firstCUEError(err))
	}
	return true, nil
}

// CUE compiles src as a constraint on a single value, for example
// "int & >0" or `=~"^[a-z]+$"`.
func CUE(src string) (ValueCheck, error) {
	v := cuecontext.New().CompileString(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile constraint: %s", firstCUEError(err))
	}
	return FromValue(v)
}

// MustCUE is like CUE but panics on error.
func MustCUE(src string) ValueCheck {
	c, err := CUE(src)
	if err != nil {
		panic(err)
	}
	return c
}

// FromValue builds a ValueCheck from an already compiled CUE value.
func FromValue(v cue.Value) (ValueCheck, error) {
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("constraint: %s", firstCUEError(err))
	}
	if !v.Exists() {
		return nil, fmt.Errorf("constraint does not exist")
	}
	c := newConstraint(v)
	return ValueCheckFunc(func(_ context.Context, x any) (bool, error) {
		return c.unify(x)
	}), nil
}

// StructCheck builds a predicate over a whole binding set from a CUE struct.
// Each field of v names a binding; at call time the named bindings are
// encoded into a struct and unified with v. A field naming an unbound
// value is an evaluation error.
//
//	{b: !=0}
//	{a: _, result: <=a}
//	{self: balance: >=0}
func StructCheck(v cue.Value) (contract.Predicate, error) {
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("constraint: %s", firstCUEError(err))
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, fmt.Errorf("constraint must be a struct, got %s", v.IncompleteKind())
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, fmt.Errorf("constraint fields: %s", firstCUEError(err))
	}
	var labels []string
	for iter.Next() {
		labels = append(labels, iter.Label())
	}

	c := newConstraint(v)
	return contract.PredicateFunc(func(_ context.Context, args binding.Set) (bool, error) {
		subset := make(map[string]any, len(labels))
		for _, l := range labels {
			val, ok := args[l]
			if !ok {
				return false, fmt.Errorf("name %q is not bound", l)
			}
			subset[l] = val
		}
		return c.unify(subset)
	}), nil
}

// Labels returns the binding names a StructCheck constraint refers to.
func Labels(v cue.Value) ([]string, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, err
	}
	var labels []string
	for iter.Next() {
		labels = append(labels, iter.Label())
	}
	return labels, nil
}

func firstCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}
